package entities

import (
	"time"

	"gorm.io/datatypes"
)

// AuditKind is the operation recorded by an audit entry.
type AuditKind string

const (
	AuditBestAssetSet AuditKind = "best_asset_set"
	AuditMerge        AuditKind = "merge"
)

// AuditEntry is an append-only record of one committed mutation. Nothing in
// catalogcore updates or deletes these rows.
type AuditEntry struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OperationID string    `gorm:"column:operation_id;type:varchar(36);not null;index" json:"operationId"`
	Kind        AuditKind `gorm:"column:kind;type:varchar(32);not null;index:idx_audit_kind_created" json:"kind"`

	// Set for best_asset_set entries.
	EntityKind string `gorm:"column:entity_kind;type:varchar(16)" json:"entityKind,omitempty"`
	EntityID   *int64 `gorm:"column:entity_id;index" json:"entityId,omitempty"`

	// Set for merge entries.
	PrimaryID   *int64 `gorm:"column:primary_id;index" json:"primaryId,omitempty"`
	SecondaryID *int64 `gorm:"column:secondary_id;index" json:"secondaryId,omitempty"`

	Summary   datatypes.JSON `gorm:"column:summary" json:"summary"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index:idx_audit_kind_created" json:"createdAt"`
}

// TableName returns the table name for GORM.
func (AuditEntry) TableName() string {
	return "catalog_audit_log"
}
