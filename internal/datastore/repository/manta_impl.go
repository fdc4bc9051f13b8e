package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// mantaRepository implements MantaRepository.
type mantaRepository struct {
	db *gorm.DB
}

// NewMantaRepository creates a new MantaRepository.
func NewMantaRepository(db *gorm.DB) MantaRepository {
	return &mantaRepository{db: db}
}

func (r *mantaRepository) WithTx(tx *gorm.DB) MantaRepository {
	return &mantaRepository{db: tx}
}

// GetByID retrieves a manta by id.
func (r *mantaRepository) GetByID(ctx context.Context, id int64) (*entities.Manta, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// LockForUpdate retrieves a manta with FOR UPDATE.
func (r *mantaRepository) LockForUpdate(ctx context.Context, id int64) (*entities.Manta, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *mantaRepository) get(q *gorm.DB, id int64) (*entities.Manta, error) {
	var manta entities.Manta
	err := q.Table(tableMantas).Where("pk_manta_id = ?", id).First(&manta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMantaNotFound
		}
		return nil, err
	}
	return &manta, nil
}

// ListByCatalog returns mantas ordered by id.
func (r *mantaRepository) ListByCatalog(ctx context.Context, catalogID int64) ([]entities.Manta, error) {
	var mantas []entities.Manta
	err := r.db.WithContext(ctx).Table(tableMantas).
		Where("fk_catalog_id = ?", catalogID).
		Order("pk_manta_id ASC").
		Find(&mantas).Error
	return mantas, err
}

// CountByCatalog counts mantas owned by the catalog entry.
func (r *mantaRepository) CountByCatalog(ctx context.Context, catalogID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(tableMantas).
		Where("fk_catalog_id = ?", catalogID).
		Count(&count).Error
	return count, err
}

// Reparent rewrites fk_catalog_id from one entry to another.
func (r *mantaRepository) Reparent(ctx context.Context, from, to int64) (int64, error) {
	result := r.db.WithContext(ctx).Table(tableMantas).
		Where("fk_catalog_id = ?", from).
		Update("fk_catalog_id", to)
	return result.RowsAffected, result.Error
}

// SightingIDsByCatalog plucks distinct sighting references.
func (r *mantaRepository) SightingIDsByCatalog(ctx context.Context, catalogID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Table(tableMantas).
		Distinct("fk_sighting_id").
		Where("fk_catalog_id = ? AND fk_sighting_id IS NOT NULL", catalogID).
		Order("fk_sighting_id ASC").
		Pluck("fk_sighting_id", &ids).Error
	return ids, err
}
