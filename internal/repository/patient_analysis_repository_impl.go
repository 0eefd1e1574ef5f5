package repository

import (
	"errors"

	"go-medical-appointment/internal/domain/entity"
	domainRepo "go-medical-appointment/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type patientAnalysisRepository struct{}

func NewPatientAnalysisRepository() domainRepo.PatientAnalysisRepository {
	return &patientAnalysisRepository{}
}

func (r *patientAnalysisRepository) Create(db *gorm.DB, patientAnalysis *entity.PatientAnalysis) error {
	return db.Omit("Analysis", "Result").Create(patientAnalysis).Error
}

func (r *patientAnalysisRepository) FindByID(db *gorm.DB, id int) (*entity.PatientAnalysis, error) {
	var patientAnalysis entity.PatientAnalysis
	err := db.Preload("Analysis").Preload("Result").Where("id = ?", id).First(&patientAnalysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patientAnalysis, nil
}

// SaveResult stores the result, replacing a previous one for the same analysis.
func (r *patientAnalysisRepository) SaveResult(db *gorm.DB, result *entity.AnalysisResult) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_analysis_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"path", "interpretation", "recorded_by", "updated_at"}),
	}).Create(result).Error
}

func (r *patientAnalysisRepository) MarkCompleted(db *gorm.DB, id int) error {
	return db.Model(&entity.PatientAnalysis{}).
		Where("id = ?", id).
		Update("status", entity.PatientAnalysisStatusCompleted).Error
}

// FindHistoryByPatientID lists every analysis of the patient, newest first.
// Analyses without a result yet come back with nil result columns.
func (r *patientAnalysisRepository) FindHistoryByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.AnalysisHistoryRow, error) {
	var rows []entity.AnalysisHistoryRow
	err := db.Table("patient_analyses AS pa").
		Select("pa.id AS patient_analysis_id, pa.analysis_date AS analysis_date, a.name AS analysis_name, ar.path AS result_path, ar.interpretation AS interpretation").
		Joins("JOIN analyses AS a ON a.id = pa.analysis_id").
		Joins("LEFT JOIN analysis_results AS ar ON ar.patient_analysis_id = pa.id").
		Where("pa.patient_id = ?", patientID).
		Order("pa.analysis_date DESC, pa.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
