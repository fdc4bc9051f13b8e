package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// SimilarityRepository provides access to the per-entity similarity index.
// Each catalog entry has at most one row.
type SimilarityRepository interface {
	// GetByCatalog returns the row for an entry. Returns ErrSimilarityRowNotFound if absent.
	GetByCatalog(ctx context.Context, catalogID int64) (*entities.SimilarityIndexRow, error)
	// ExistsForCatalog reports whether the entry has a row.
	ExistsForCatalog(ctx context.Context, catalogID int64) (bool, error)
	// Repoint moves the row of from to to. A unique violation surfaces as
	// gorm.ErrDuplicatedKey when to already has a row.
	Repoint(ctx context.Context, from, to int64) (int64, error)
	// DeleteByCatalog removes the row of an entry.
	DeleteByCatalog(ctx context.Context, catalogID int64) (int64, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) SimilarityRepository
}

// similarityRepository implements SimilarityRepository.
type similarityRepository struct {
	db *gorm.DB
}

// NewSimilarityRepository creates a new SimilarityRepository.
func NewSimilarityRepository(db *gorm.DB) SimilarityRepository {
	return &similarityRepository{db: db}
}

func (r *similarityRepository) WithTx(tx *gorm.DB) SimilarityRepository {
	return &similarityRepository{db: tx}
}

func (r *similarityRepository) GetByCatalog(ctx context.Context, catalogID int64) (*entities.SimilarityIndexRow, error) {
	var row entities.SimilarityIndexRow
	err := r.db.WithContext(ctx).Table(tableEmbeddings).
		Where("pk_catalog_id = ?", catalogID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSimilarityRowNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *similarityRepository) ExistsForCatalog(ctx context.Context, catalogID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(tableEmbeddings).
		Where("pk_catalog_id = ?", catalogID).
		Count(&count).Error
	return count > 0, err
}

func (r *similarityRepository) Repoint(ctx context.Context, from, to int64) (int64, error) {
	result := r.db.WithContext(ctx).Table(tableEmbeddings).
		Where("pk_catalog_id = ?", from).
		Update("pk_catalog_id", to)
	return result.RowsAffected, result.Error
}

func (r *similarityRepository) DeleteByCatalog(ctx context.Context, catalogID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("pk_catalog_id = ?", catalogID).
		Delete(&entities.SimilarityIndexRow{})
	return result.RowsAffected, result.Error
}
