package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

// CreateAppointmentRequest is the booking form. Cost is capped at 100000.
type CreateAppointmentRequest struct {
	DoctorID  uuid.UUID        `json:"doctor_id" validate:"required"`
	PatientID *uuid.UUID       `json:"patient_id" validate:"omitempty"`
	StartTime time.Time        `json:"start_time" validate:"required"`
	EndTime   time.Time        `json:"end_time" validate:"required,gtfield=StartTime"`
	Cost      *decimal.Decimal `json:"cost" validate:"required,appointment_cost"`
	Reason    string           `json:"reason" validate:"omitempty,max=500"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type CompleteAppointmentRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=5000"`
}

// AppointmentListQuery is parsed from the list endpoint's query string.
type AppointmentListQuery struct {
	Status string     `validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	From   *time.Time `validate:"omitempty"`
	To     *time.Time `validate:"omitempty"`
	PageRequest
}

// Response DTOs

type AppointmentPartyResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

type AppointmentResponse struct {
	ID             uuid.UUID                `json:"id"`
	Patient        AppointmentPartyResponse `json:"patient"`
	Doctor         AppointmentPartyResponse `json:"doctor"`
	Specialization string                   `json:"specialization,omitempty"`
	StartTime      time.Time                `json:"start_time"`
	EndTime        time.Time                `json:"end_time"`
	Cost           decimal.Decimal          `json:"cost"`
	Status         string                   `json:"status"`
	Reason         string                   `json:"reason,omitempty"`
	Notes          string                   `json:"notes,omitempty"`
	ReminderSentAt *time.Time               `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}
