package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog represents a system audit trail entry
type AuditLog struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uuid.UUID        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string            `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogFilter narrows the audit trail. Zero fields match everything.
type AuditLogFilter struct {
	// ActionPrefix matches whole action families, e.g. "appointment." for every appointment action.
	ActionPrefix string
	UserID       *uuid.UUID
	EntityID     string
}

// Audit metadata keys written by the audit service.
const (
	AuditMetaEntity   = "entity"
	AuditMetaEntityID = "entity_id"
	AuditMetaOldValue = "old_value"
	AuditMetaNewValue = "new_value"
)

const (
	AuditActionUserRegister       = "user.register"
	AuditActionProfileUpdate      = "profile.update"
	AuditActionDoctorCreate       = "doctor.create"
	AuditActionDoctorUpdate       = "doctor.update"
	AuditActionAppointmentCreate  = "appointment.create"
	AuditActionAppointmentConfirm = "appointment.confirm"
	AuditActionAppointmentCancel  = "appointment.cancel"
	AuditActionAppointmentDone    = "appointment.complete"
	AuditActionAnalysisCreate     = "analysis.create"
	AuditActionAnalysisUpdate     = "analysis.update"
	AuditActionAnalysisDelete     = "analysis.delete"
	AuditActionAnalysisOrder      = "patient_analysis.order"
	AuditActionAnalysisResult     = "patient_analysis.result"
	AuditActionAvailabilityCreate = "availability.create"
	AuditActionAvailabilityDelete = "availability.delete"
)
