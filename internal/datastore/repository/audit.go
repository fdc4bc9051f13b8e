package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

// AuditFilter narrows audit log queries. Zero values mean no filter.
type AuditFilter struct {
	Kind     entities.AuditKind
	EntityID int64
	Limit    int
}

// AuditRepository appends to and reads the audit log. Entries are never
// updated or deleted.
type AuditRepository interface {
	// Create appends an entry.
	Create(ctx context.Context, entry *entities.AuditEntry) error
	// List returns entries newest first. EntityID matches the entity, primary
	// or secondary column.
	List(ctx context.Context, filter AuditFilter) ([]entities.AuditEntry, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) AuditRepository
}

const defaultAuditLimit = 100

// auditRepository implements AuditRepository.
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) WithTx(tx *gorm.DB) AuditRepository {
	return &auditRepository{db: tx}
}

func (r *auditRepository) Create(ctx context.Context, entry *entities.AuditEntry) error {
	return r.db.WithContext(ctx).Table(tableAuditLog).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]entities.AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	q := r.db.WithContext(ctx).Table(tableAuditLog)
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.EntityID > 0 {
		q = q.Where("(entity_id = ? OR primary_id = ? OR secondary_id = ?)",
			filter.EntityID, filter.EntityID, filter.EntityID)
	}

	var entries []entities.AuditEntry
	err := q.Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
