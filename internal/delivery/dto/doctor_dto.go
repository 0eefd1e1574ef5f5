package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateDoctorRequest struct {
	Email           string           `json:"email" validate:"required,email"`
	Password        string           `json:"password" validate:"required,min=8"`
	FullName        string           `json:"full_name" validate:"required,min=2,max=255"`
	LicenseNumber   string           `json:"license_number" validate:"required,max=50"`
	Specialization  string           `json:"specialization" validate:"required,max=100"`
	Biography       string           `json:"biography" validate:"omitempty"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee" validate:"omitempty,appointment_cost"`
}

type UpdateDoctorRequest struct {
	Email           string           `json:"email" validate:"omitempty,email"`
	Password        string           `json:"password" validate:"omitempty,min=8"`
	FullName        string           `json:"full_name" validate:"omitempty,min=2,max=255"`
	LicenseNumber   string           `json:"license_number" validate:"omitempty,max=50"`
	Specialization  string           `json:"specialization" validate:"omitempty,max=100"`
	Biography       string           `json:"biography" validate:"omitempty"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee" validate:"omitempty,appointment_cost"`
	IsActive        *bool            `json:"is_active" validate:"omitempty"`
}

type DoctorUpdateSelfRequest struct {
	OldPassword string `json:"old_password" validate:"required_with=Password"`
	Password    string `json:"password" validate:"omitempty,min=8"`
	Biography   string `json:"biography" validate:"omitempty"`
}

// Response DTOs

type DoctorProfileResponse struct {
	LicenseNumber   string          `json:"license_number"`
	Specialization  string          `json:"specialization"`
	Biography       string          `json:"biography,omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
}

type DoctorResponse struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	FullName        string          `json:"full_name"`
	LicenseNumber   string          `json:"license_number"`
	Specialization  string          `json:"specialization"`
	Biography       string          `json:"biography,omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	IsActive        *bool           `json:"is_active"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
