package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxAppointmentCost is the inclusive ceiling for an appointment's cost.
var MaxAppointmentCost = decimal.NewFromInt(100000)

// MaxAppointmentDuration bounds a single appointment window.
const MaxAppointmentDuration = 8 * time.Hour

var (
	ErrCostNegative       = errors.New("cost must not be negative")
	ErrCostExceedsCeiling = errors.New("cost exceeds the maximum appointment cost")
	ErrCostPrecision      = errors.New("cost must have at most two decimal places")
	ErrInvalidTransition  = errors.New("appointment status transition not allowed")
	ErrInvalidTimeWindow  = errors.New("appointment end must be after start")
	ErrAppointmentTooLong = errors.New("appointment exceeds the maximum duration")
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// ActiveAppointmentStatuses block the doctor's time slot.
var ActiveAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment represents a patient visit with a doctor
type Appointment struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_appointments_doctor_start" json:"doctor_id"`
	StartTime      time.Time         `gorm:"not null;index:idx_appointments_doctor_start" json:"start_time"`
	EndTime        time.Time         `gorm:"not null" json:"end_time"`
	Cost           decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"cost"`
	Status         AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Reason         string            `gorm:"type:varchar(500)" json:"reason,omitempty"`
	Notes          string            `gorm:"type:text" json:"notes,omitempty"`
	ReminderSentAt *time.Time        `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient PatientProfile `gorm:"foreignKey:PatientID;references:UserID" json:"patient,omitempty"`
	Doctor  DoctorProfile  `gorm:"foreignKey:DoctorID;references:UserID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentStatusScheduled
	}
	return nil
}

// ValidateCost enforces the cost ceiling: 0 <= cost <= MaxAppointmentCost, cents precision.
func ValidateCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return ErrCostNegative
	}
	if cost.GreaterThan(MaxAppointmentCost) {
		return ErrCostExceedsCeiling
	}
	if !cost.Equal(cost.Truncate(2)) {
		return ErrCostPrecision
	}
	return nil
}

// ValidateWindow checks the appointment's time bounds.
func ValidateWindow(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidTimeWindow
	}
	if end.Sub(start) > MaxAppointmentDuration {
		return ErrAppointmentTooLong
	}
	return nil
}

func (a *Appointment) IsActive() bool {
	return a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusConfirmed
}

func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// CanTransitionTo reports whether the status graph allows moving to next.
func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	switch a.Status {
	case AppointmentStatusScheduled:
		return next == AppointmentStatusConfirmed || next == AppointmentStatusCompleted || next == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return next == AppointmentStatusCompleted || next == AppointmentStatusCancelled
	default:
		return false
	}
}

// TransitionTo moves the appointment to next or returns ErrInvalidTransition.
func (a *Appointment) TransitionTo(next AppointmentStatus) error {
	if !a.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	a.Status = next
	return nil
}

// InvolvesUser reports whether the user is the appointment's patient or doctor.
func (a *Appointment) InvolvesUser(userID uuid.UUID) bool {
	return a.PatientID == userID || a.DoctorID == userID
}

// AppointmentFilter is a domain-level filter for listing appointments.
// Zero values are ignored.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    AppointmentStatus
	From      *time.Time
	To        *time.Time
	// ExcludeCancelled drops cancelled rows regardless of Status.
	ExcludeCancelled bool
}
