package repository

import (
	"context"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *entity.Analysis) error
	FindAll(ctx context.Context, limit, offset int) ([]entity.Analysis, int64, error)
	FindByID(ctx context.Context, id int) (*entity.Analysis, error)
	Update(ctx context.Context, analysis *entity.Analysis) error
	Delete(ctx context.Context, id int) error
	Upsert(ctx context.Context, analyses []entity.Analysis) (int64, error)
}

type PatientAnalysisRepository interface {
	Create(db *gorm.DB, patientAnalysis *entity.PatientAnalysis) error
	FindByID(db *gorm.DB, id int) (*entity.PatientAnalysis, error)
	SaveResult(db *gorm.DB, result *entity.AnalysisResult) error
	MarkCompleted(db *gorm.DB, id int) error
	FindHistoryByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.AnalysisHistoryRow, error)
}
