package repository

import (
	"errors"

	"go-medical-appointment/internal/domain/entity"
	domainRepo "go-medical-appointment/internal/domain/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	return db.Create(log).Error
}

func applyAuditLogFilter(db *gorm.DB, filter *entity.AuditLogFilter) *gorm.DB {
	if filter == nil {
		return db
	}
	if filter.ActionPrefix != "" {
		db = db.Where("action LIKE ?", filter.ActionPrefix+"%")
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.EntityID != "" {
		db = db.Where(datatypes.JSONQuery("metadata").Equals(filter.EntityID, entity.AuditMetaEntityID))
	}
	return db
}

func (r *auditLogRepository) FindAll(db *gorm.DB, filter *entity.AuditLogFilter, limit, offset int) ([]entity.AuditLog, int64, error) {
	var logs []entity.AuditLog
	var total int64

	if err := applyAuditLogFilter(db.Model(&entity.AuditLog{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := applyAuditLogFilter(db, filter).
		Preload("User.Role").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *auditLogRepository) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := db.Preload("User.Role").Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
