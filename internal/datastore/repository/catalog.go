package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

// Aggregates are the recomputed sighting summary of a catalog entry.
type Aggregates struct {
	FirstSighting  *time.Time
	LastSighting   *time.Time
	TotalSightings int
}

// ListOptions paginates list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// CatalogRepository provides access to catalog entries.
type CatalogRepository interface {
	// GetByID retrieves a catalog entry. Returns ErrCatalogNotFound if absent.
	GetByID(ctx context.Context, id int64) (*entities.CatalogEntity, error)
	// Exists reports whether the catalog entry exists.
	Exists(ctx context.Context, id int64) (bool, error)
	// LockForUpdate reads the given entries under a row lock, in ascending id
	// order. Entries that do not exist are omitted from the result.
	LockForUpdate(ctx context.Context, ids ...int64) ([]entities.CatalogEntity, error)
	// List returns entries ordered by id along with the total count.
	List(ctx context.Context, opts ListOptions) ([]entities.CatalogEntity, int64, error)
	// Search matches entries by exact id (numeric terms) or name substring.
	Search(ctx context.Context, term string, limit int) ([]entities.CatalogEntity, error)

	// SetBestPointer writes the best-photo pointer for one view (nil clears it).
	SetBestPointer(ctx context.Context, id int64, view entities.View, photoID *int64) error
	// ClearBestPointers clears both best-photo pointers.
	ClearBestPointers(ctx context.Context, id int64) error
	// ClearPointersTo clears any pointer for views (all views when none are
	// given) on entries other than keep that names one of photoIDs. Returns
	// the number of pointers cleared.
	ClearPointersTo(ctx context.Context, photoIDs []int64, keep int64, views ...entities.View) (int64, error)
	// UpdateAggregates overwrites the sighting summary.
	UpdateAggregates(ctx context.Context, id int64, agg Aggregates) error
	// Delete removes the entry. Returns ErrCatalogNotFound if nothing was deleted.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) CatalogRepository
}
