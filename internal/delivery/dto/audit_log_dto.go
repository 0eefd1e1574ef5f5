package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLogQuery is the admin audit trail filter, read from the query string.
type AuditLogQuery struct {
	// Action is a prefix: "appointment." lists every appointment action.
	Action   string
	UserID   *uuid.UUID
	EntityID string
	PageRequest
}

type AuditLogResponse struct {
	ID        int64             `json:"id"`
	User      *UserResponse     `json:"user,omitempty"`
	Action    string            `json:"action"`
	Entity    string            `json:"entity,omitempty"`
	EntityID  string            `json:"entity_id,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
}
