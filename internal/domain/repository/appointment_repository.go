package repository

import (
	"time"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindAll(db *gorm.DB, filter *entity.AppointmentFilter, limit, offset int) ([]entity.Appointment, int64, error)
	FindInRange(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	LockParticipants(db *gorm.DB, doctorID, patientID uuid.UUID) error
	HasOverlap(db *gorm.DB, doctorID, patientID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus, extra map[string]interface{}) (int64, error)
	CompleteEnded(db *gorm.DB, before time.Time) (int64, error)
	FindDueForReminder(db *gorm.DB, from, to time.Time, limit int) ([]entity.Appointment, error)
	MarkReminderSent(db *gorm.DB, id uuid.UUID, at time.Time) (int64, error)
}
