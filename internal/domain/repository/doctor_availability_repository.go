package repository

import (
	"time"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorAvailabilityRepository interface {
	Create(db *gorm.DB, availability *entity.DoctorAvailability) error
	FindByID(db *gorm.DB, id int) (*entity.DoctorAvailability, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorAvailability, error)
	FindActiveInRange(db *gorm.DB, doctorID *uuid.UUID, from, to time.Time) ([]entity.DoctorAvailability, error)
	Delete(db *gorm.DB, id int) (int64, error)
}
