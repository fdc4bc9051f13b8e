package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

// SightingRepository provides read access to sightings.
type SightingRepository interface {
	// ListByIDs returns the sightings with the given ids. Unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []int64) ([]entities.Sighting, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) SightingRepository
}

// sightingRepository implements SightingRepository.
type sightingRepository struct {
	db *gorm.DB
}

// NewSightingRepository creates a new SightingRepository.
func NewSightingRepository(db *gorm.DB) SightingRepository {
	return &sightingRepository{db: db}
}

func (r *sightingRepository) WithTx(tx *gorm.DB) SightingRepository {
	return &sightingRepository{db: tx}
}

func (r *sightingRepository) ListByIDs(ctx context.Context, ids []int64) ([]entities.Sighting, error) {
	var sightings []entities.Sighting
	if len(ids) == 0 {
		return sightings, nil
	}
	err := r.db.WithContext(ctx).Table(tableSightings).
		Where("pk_sighting_id IN ?", ids).
		Order("pk_sighting_id ASC").
		Find(&sightings).Error
	return sightings, err
}
