package repository

import (
	"context"
	"errors"

	"go-medical-appointment/internal/domain/entity"
	domainRepo "go-medical-appointment/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) domainRepo.AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(ctx context.Context, analysis *entity.Analysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

func (r *analysisRepository) FindAll(ctx context.Context, limit, offset int) ([]entity.Analysis, int64, error) {
	var analyses []entity.Analysis
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.Analysis{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Order("name ASC, id ASC").Find(&analyses).Error; err != nil {
		return nil, 0, err
	}

	return analyses, total, nil
}

func (r *analysisRepository) FindByID(ctx context.Context, id int) (*entity.Analysis, error) {
	var analysis entity.Analysis
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &analysis, nil
}

func (r *analysisRepository) Update(ctx context.Context, analysis *entity.Analysis) error {
	return r.db.WithContext(ctx).Save(analysis).Error
}

func (r *analysisRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Analysis{}).Error
}

// Upsert inserts catalog entries keyed by code, refreshing existing rows.
func (r *analysisRepository) Upsert(ctx context.Context, analyses []entity.Analysis) (int64, error) {
	if len(analyses) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "updated_at"}),
	}).Create(&analyses)
	return result.RowsAffected, result.Error
}
