package repository

import (
	"context"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error)
	// Exists reports whether userID has a patient profile, without loading it.
	Exists(ctx context.Context, db *gorm.DB, userID uuid.UUID) (bool, error)
	Update(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
}
