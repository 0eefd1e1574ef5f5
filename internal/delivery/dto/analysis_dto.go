package dto

import (
	"time"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog

type CreateAnalysisRequest struct {
	Code        string           `json:"code" validate:"required,max=50"`
	Name        string           `json:"name" validate:"required,min=2,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,appointment_cost"`
}

type UpdateAnalysisRequest struct {
	Name        string           `json:"name" validate:"required,min=2,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,appointment_cost"`
}

type AnalysisResponse struct {
	ID          int             `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Patient analyses

type OrderAnalysisRequest struct {
	PatientID     uuid.UUID  `json:"patient_id" validate:"required"`
	AnalysisID    int        `json:"analysis_id" validate:"required,gt=0"`
	AppointmentID *uuid.UUID `json:"appointment_id" validate:"omitempty"`
	AnalysisDate  string     `json:"analysis_date" validate:"required,datetime=2006-01-02"`
}

type RecordResultRequest struct {
	Path           string `json:"path" validate:"required,max=1024"`
	Interpretation string `json:"interpretation" validate:"omitempty,max=10000"`
}

type PatientAnalysisResponse struct {
	ID            int                  `json:"id"`
	PatientID     uuid.UUID            `json:"patient_id"`
	AppointmentID *uuid.UUID           `json:"appointment_id,omitempty"`
	Analysis      AnalysisResponse     `json:"analysis"`
	AnalysisDate  string               `json:"analysis_date"`
	Status        string               `json:"status"`
	Result        *AnalysisResultEntry `json:"result,omitempty"`
}

type AnalysisResultEntry struct {
	Path           string    `json:"path"`
	Interpretation string    `json:"interpretation"`
	RecordedAt     time.Time `json:"recorded_at"`
}

type ResultDownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AnalysisHistoryResponse wraps the ordered history list.
type AnalysisHistoryResponse struct {
	PatientID       uuid.UUID                `json:"patient_id"`
	AnalysisHistory []entity.AnalysisHistory `json:"analysisHistory"`
}
