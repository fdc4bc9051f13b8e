package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

// PhotoRepository provides access to photos and their best-asset flags.
type PhotoRepository interface {
	// GetByID retrieves a photo. Returns ErrPhotoNotFound if absent.
	GetByID(ctx context.Context, id int64) (*entities.Photo, error)
	// LockForUpdate reads a photo under a row lock. Returns ErrPhotoNotFound if absent.
	LockForUpdate(ctx context.Context, id int64) (*entities.Photo, error)
	// ListByCatalog returns photos belonging to a catalog entry, directly or via a manta.
	ListByCatalog(ctx context.Context, catalogID int64) ([]entities.Photo, error)
	// ListByManta returns the photos of one manta.
	ListByManta(ctx context.Context, mantaID int64) ([]entities.Photo, error)
	// CountByCatalog counts photos belonging to a catalog entry.
	CountByCatalog(ctx context.Context, catalogID int64) (int64, error)

	// FlaggedForCatalog returns ids of photos belonging to the entry that carry
	// its best flag for view.
	FlaggedForCatalog(ctx context.Context, catalogID int64, view entities.View) ([]int64, error)
	// FlaggedForManta returns ids of the manta's photos that carry its best flag for view.
	FlaggedForManta(ctx context.Context, mantaID int64, view entities.View) ([]int64, error)

	// ClearCatalogBest clears the catalog best flags for views on every photo
	// belonging to the entry. No views means all canonical views.
	ClearCatalogBest(ctx context.Context, catalogID int64, views ...entities.View) (int64, error)
	// ClearCatalogBestByIDs clears both catalog best flags on the given photos.
	ClearCatalogBestByIDs(ctx context.Context, photoIDs []int64) (int64, error)
	// ClearMantaBest clears the manta best flag for view on the manta's photos.
	ClearMantaBest(ctx context.Context, mantaID int64, view entities.View) (int64, error)
	// MarkCatalogBest sets the catalog best flag for view on one photo.
	MarkCatalogBest(ctx context.Context, photoID int64, view entities.View) error
	// MarkMantaBest sets the manta best flag for view on one photo.
	MarkMantaBest(ctx context.Context, photoID int64, view entities.View) error
	// SetCatalogRef rewrites the denormalized catalog reference of one photo.
	SetCatalogRef(ctx context.Context, photoID, catalogID int64) error

	// ReparentDirect rewrites the denormalized reference from one entry to another.
	ReparentDirect(ctx context.Context, from, to int64) (int64, error)
	// DriftedInto returns photos whose manta is owned by catalogID but whose
	// denormalized reference is null or names another entry.
	DriftedInto(ctx context.Context, catalogID int64) ([]entities.Photo, error)
	// ReparentViaManta repairs the denormalized reference of every drifted
	// photo owned through a manta by catalogID.
	ReparentViaManta(ctx context.Context, catalogID int64) (int64, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) PhotoRepository
}
