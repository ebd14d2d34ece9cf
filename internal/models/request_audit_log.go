package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RequestAuditLog records operator actions against a request (rescan,
// priority change). Rows are append-only; together with soft-deleted
// requests they form the permanent audit trail.
type RequestAuditLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestID   uint      `gorm:"index"`
	Action      string
	PerformedBy string
	Details     datatypes.JSON
	CreatedAt   time.Time
}

func (RequestAuditLog) TableName() string { return "request_audit_logs" }
