package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit event names emitted by the registries.
const (
	AuditEventCreate = "Create"
	AuditEventUpdate = "Update"
	AuditEventDelete = "Delete"
)

// AuditLogEntry is one append-only audit record. Exactly one of
// TargetKey and TargetID is populated; the recorder enforces that.
// Rows are never updated or deleted.
type AuditLogEntry struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null"`
	ObjectKey     string         `json:"object_key" gorm:"type:varchar(100);index;not null"`
	Event         string         `json:"event" gorm:"type:varchar(50);not null"`
	TargetKey     *string        `json:"target_key,omitempty" gorm:"type:varchar(255)"`
	TargetID      *uint          `json:"target_id,omitempty"`
	ClientIP      string         `json:"client_ip" gorm:"type:varchar(64)"`
	Payload       datatypes.JSON `json:"payload,omitempty"`
	CorrelationID string         `json:"correlation_id" gorm:"type:varchar(64);index"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index"`
	ActorID       uint           `json:"actor_id" gorm:"index"`
}

// TableName overrides the default pluralization.
func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}

// ChangeHistoryEntry is one append-only field-level value transition.
// Written only for fields whose definition has AuditChanges set.
type ChangeHistoryEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TenantID      uint      `json:"tenant_id" gorm:"index;not null"`
	ObjectKey     string    `json:"object_key" gorm:"type:varchar(100);index;not null"`
	TargetKey     *string   `json:"target_key,omitempty" gorm:"type:varchar(255)"`
	TargetID      *uint     `json:"target_id,omitempty"`
	FieldName     string    `json:"field_name" gorm:"type:varchar(100);not null"`
	OldValue      string    `json:"old_value" gorm:"type:text"`
	NewValue      string    `json:"new_value" gorm:"type:text"`
	CorrelationID string    `json:"correlation_id" gorm:"type:varchar(64);index"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`
	ActorID       uint      `json:"actor_id" gorm:"index"`
}

// TableName overrides the default pluralization.
func (ChangeHistoryEntry) TableName() string {
	return "change_history_entries"
}
