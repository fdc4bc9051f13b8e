package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

// MantaRepository provides access to manta records.
type MantaRepository interface {
	// GetByID retrieves a manta. Returns ErrMantaNotFound if absent.
	GetByID(ctx context.Context, id int64) (*entities.Manta, error)
	// LockForUpdate reads a manta under a row lock. Returns ErrMantaNotFound if absent.
	LockForUpdate(ctx context.Context, id int64) (*entities.Manta, error)
	// ListByCatalog returns the mantas owned by a catalog entry.
	ListByCatalog(ctx context.Context, catalogID int64) ([]entities.Manta, error)
	// CountByCatalog counts the mantas owned by a catalog entry.
	CountByCatalog(ctx context.Context, catalogID int64) (int64, error)
	// Reparent moves every manta owned by from to to. Returns rows moved.
	Reparent(ctx context.Context, from, to int64) (int64, error)
	// SightingIDsByCatalog returns the distinct non-null sighting ids of the
	// mantas owned by a catalog entry, ascending.
	SightingIDsByCatalog(ctx context.Context, catalogID int64) ([]int64, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) MantaRepository
}
