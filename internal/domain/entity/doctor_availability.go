package entity

import (
	"time"

	"github.com/google/uuid"
)

// DoctorAvailability is a recurring working-hours rule for a doctor.
// RRule follows RFC 5545 (e.g. FREQ=WEEKLY;BYDAY=MO,WE,FR); each occurrence
// starts at StartTime (HH:MM, clinic timezone) and lasts DurationMinutes.
type DoctorAvailability struct {
	ID              int        `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"doctor_id"`
	RRule           string     `gorm:"column:rrule;type:varchar(255);not null" json:"rrule"`
	StartTime       string     `gorm:"type:varchar(5);not null" json:"start_time"`
	DurationMinutes int        `gorm:"not null" json:"duration_minutes"`
	ValidFrom       time.Time  `gorm:"type:date;not null" json:"valid_from"`
	ValidUntil      *time.Time `gorm:"type:date" json:"valid_until,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DoctorAvailability) TableName() string {
	return "doctor_availabilities"
}

// AvailabilityWindow is one concrete occurrence of a DoctorAvailability rule.
type AvailabilityWindow struct {
	AvailabilityID int
	DoctorID       uuid.UUID
	Start          time.Time
	End            time.Time
}
