package repository

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// catalogRepository implements CatalogRepository.
type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) WithTx(tx *gorm.DB) CatalogRepository {
	return &catalogRepository{db: tx}
}

// GetByID retrieves a catalog entry by id.
func (r *catalogRepository) GetByID(ctx context.Context, id int64) (*entities.CatalogEntity, error) {
	var entry entities.CatalogEntity
	err := r.db.WithContext(ctx).Table(tableCatalog).
		Where("pk_catalog_id = ?", id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Exists checks presence without loading the row.
func (r *catalogRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(tableCatalog).
		Where("pk_catalog_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// LockForUpdate issues SELECT ... FOR UPDATE ordered by id. SQLite ignores
// the locking clause; writers there are serialized by BEGIN IMMEDIATE.
func (r *catalogRepository) LockForUpdate(ctx context.Context, ids ...int64) ([]entities.CatalogEntity, error) {
	var entries []entities.CatalogEntity
	if len(ids) == 0 {
		return entries, nil
	}
	err := r.db.WithContext(ctx).Table(tableCatalog).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("pk_catalog_id IN ?", ids).
		Order("pk_catalog_id ASC").
		Find(&entries).Error
	return entries, err
}

// List returns a page of entries.
func (r *catalogRepository) List(ctx context.Context, opts ListOptions) ([]entities.CatalogEntity, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Table(tableCatalog).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []entities.CatalogEntity
	q := r.db.WithContext(ctx).Table(tableCatalog).Order("pk_catalog_id ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Search matches by id when term parses as an integer, otherwise by name.
func (r *catalogRepository) Search(ctx context.Context, term string, limit int) ([]entities.CatalogEntity, error) {
	term = strings.TrimSpace(term)
	var entries []entities.CatalogEntity
	q := r.db.WithContext(ctx).Table(tableCatalog).Order("pk_catalog_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if id, err := strconv.ParseInt(term, 10, 64); err == nil {
		q = q.Where("pk_catalog_id = ? OR name LIKE ?", id, "%"+term+"%")
	} else {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	err := q.Find(&entries).Error
	return entries, err
}

// SetBestPointer writes one view pointer.
func (r *catalogRepository) SetBestPointer(ctx context.Context, id int64, view entities.View, photoID *int64) error {
	result := r.db.WithContext(ctx).Model(&entities.CatalogEntity{}).
		Where("pk_catalog_id = ?", id).
		Update(entities.CatalogPointerColumn(view), photoID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		ok, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCatalogNotFound
		}
	}
	return nil
}

// ClearBestPointers nulls both pointers.
func (r *catalogRepository) ClearBestPointers(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&entities.CatalogEntity{}).
		Where("pk_catalog_id = ?", id).
		Updates(map[string]any{
			entities.CatalogPointerColumn(entities.ViewVentral): nil,
			entities.CatalogPointerColumn(entities.ViewDorsal):  nil,
		}).Error
}

// ClearPointersTo removes stale references to photos that moved away.
func (r *catalogRepository) ClearPointersTo(ctx context.Context, photoIDs []int64, keep int64, views ...entities.View) (int64, error) {
	if len(photoIDs) == 0 {
		return 0, nil
	}
	if len(views) == 0 {
		views = entities.CanonicalViews
	}
	var touched int64
	for _, view := range views {
		col := entities.CatalogPointerColumn(view)
		result := r.db.WithContext(ctx).Model(&entities.CatalogEntity{}).
			Where("pk_catalog_id <> ?", keep).
			Where(col+" IN ?", photoIDs).
			Update(col, nil)
		if result.Error != nil {
			return touched, result.Error
		}
		touched += result.RowsAffected
	}
	return touched, nil
}

// UpdateAggregates overwrites the sighting summary columns.
func (r *catalogRepository) UpdateAggregates(ctx context.Context, id int64, agg Aggregates) error {
	return r.db.WithContext(ctx).Model(&entities.CatalogEntity{}).
		Where("pk_catalog_id = ?", id).
		Updates(map[string]any{
			"first_sighting":  agg.FirstSighting,
			"last_sighting":   agg.LastSighting,
			"total_sightings": agg.TotalSightings,
		}).Error
}

// Delete removes the entry.
func (r *catalogRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Where("pk_catalog_id = ?", id).
		Delete(&entities.CatalogEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCatalogNotFound
	}
	return nil
}
