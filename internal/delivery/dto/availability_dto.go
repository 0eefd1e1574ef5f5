package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAvailabilityRequest struct {
	RRule           string `json:"rrule" validate:"required,max=255,rrule"`
	StartTime       string `json:"start_time" validate:"required,hhmm"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gte=15,lte=720"`
	ValidFrom       string `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidUntil      string `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
}

type AvailabilityResponse struct {
	ID              int       `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	RRule           string    `json:"rrule"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	ValidFrom       string    `json:"valid_from"`
	ValidUntil      string    `json:"valid_until,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type AvailabilityWindowResponse struct {
	AvailabilityID int       `json:"availability_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

type DoctorAvailabilityResponse struct {
	DoctorID uuid.UUID                    `json:"doctor_id"`
	Rules    []AvailabilityResponse       `json:"rules"`
	Windows  []AvailabilityWindowResponse `json:"windows,omitempty"`
}
