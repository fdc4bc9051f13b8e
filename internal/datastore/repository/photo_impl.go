package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// photoRepository implements PhotoRepository.
type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new PhotoRepository.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) WithTx(tx *gorm.DB) PhotoRepository {
	return &photoRepository{db: tx}
}

// mantasOf is the subquery selecting the manta ids owned by a catalog entry.
func (r *photoRepository) mantasOf(catalogID int64) *gorm.DB {
	return r.db.Table(tableMantas).Select("pk_manta_id").Where("fk_catalog_id = ?", catalogID)
}

// belongsTo scopes q to photos belonging to the entry directly or via a manta.
func (r *photoRepository) belongsTo(q *gorm.DB, catalogID int64) *gorm.DB {
	return q.Where("(fk_catalog_id = ? OR fk_manta_id IN (?))", catalogID, r.mantasOf(catalogID))
}

// GetByID retrieves a photo by id.
func (r *photoRepository) GetByID(ctx context.Context, id int64) (*entities.Photo, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// LockForUpdate retrieves a photo with FOR UPDATE.
func (r *photoRepository) LockForUpdate(ctx context.Context, id int64) (*entities.Photo, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *photoRepository) get(q *gorm.DB, id int64) (*entities.Photo, error) {
	var photo entities.Photo
	err := q.Table(tablePhotos).Where("pk_photo_id = ?", id).First(&photo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return &photo, nil
}

// ListByCatalog returns photos ordered by id.
func (r *photoRepository) ListByCatalog(ctx context.Context, catalogID int64) ([]entities.Photo, error) {
	var photos []entities.Photo
	err := r.belongsTo(r.db.WithContext(ctx).Table(tablePhotos), catalogID).
		Order("pk_photo_id ASC").
		Find(&photos).Error
	return photos, err
}

// ListByManta returns photos ordered by id.
func (r *photoRepository) ListByManta(ctx context.Context, mantaID int64) ([]entities.Photo, error) {
	var photos []entities.Photo
	err := r.db.WithContext(ctx).Table(tablePhotos).
		Where("fk_manta_id = ?", mantaID).
		Order("pk_photo_id ASC").
		Find(&photos).Error
	return photos, err
}

// CountByCatalog counts photos belonging to the entry.
func (r *photoRepository) CountByCatalog(ctx context.Context, catalogID int64) (int64, error) {
	var count int64
	err := r.belongsTo(r.db.WithContext(ctx).Table(tablePhotos), catalogID).
		Count(&count).Error
	return count, err
}

func (r *photoRepository) FlaggedForCatalog(ctx context.Context, catalogID int64, view entities.View) ([]int64, error) {
	var ids []int64
	err := r.belongsTo(r.db.WithContext(ctx).Table(tablePhotos), catalogID).
		Where(entities.CatalogBestColumn(view)+" = ?", true).
		Order("pk_photo_id ASC").
		Pluck("pk_photo_id", &ids).Error
	return ids, err
}

func (r *photoRepository) FlaggedForManta(ctx context.Context, mantaID int64, view entities.View) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Table(tablePhotos).
		Where("fk_manta_id = ?", mantaID).
		Where(entities.MantaBestColumn(view)+" = ?", true).
		Order("pk_photo_id ASC").
		Pluck("pk_photo_id", &ids).Error
	return ids, err
}

// ClearCatalogBest only touches rows that currently carry one of the flags.
func (r *photoRepository) ClearCatalogBest(ctx context.Context, catalogID int64, views ...entities.View) (int64, error) {
	if len(views) == 0 {
		views = entities.CanonicalViews
	}
	q := r.belongsTo(r.db.WithContext(ctx).Table(tablePhotos), catalogID)
	return clearFlags(q, catalogColumns(views))
}

func (r *photoRepository) ClearCatalogBestByIDs(ctx context.Context, photoIDs []int64) (int64, error) {
	if len(photoIDs) == 0 {
		return 0, nil
	}
	q := r.db.WithContext(ctx).Table(tablePhotos).Where("pk_photo_id IN ?", photoIDs)
	return clearFlags(q, catalogColumns(entities.CanonicalViews))
}

func (r *photoRepository) ClearMantaBest(ctx context.Context, mantaID int64, view entities.View) (int64, error) {
	q := r.db.WithContext(ctx).Table(tablePhotos).Where("fk_manta_id = ?", mantaID)
	return clearFlags(q, []string{entities.MantaBestColumn(view)})
}

func (r *photoRepository) MarkCatalogBest(ctx context.Context, photoID int64, view entities.View) error {
	return r.setColumn(ctx, photoID, entities.CatalogBestColumn(view), true)
}

func (r *photoRepository) MarkMantaBest(ctx context.Context, photoID int64, view entities.View) error {
	return r.setColumn(ctx, photoID, entities.MantaBestColumn(view), true)
}

func (r *photoRepository) SetCatalogRef(ctx context.Context, photoID, catalogID int64) error {
	return r.setColumn(ctx, photoID, "fk_catalog_id", catalogID)
}

func (r *photoRepository) setColumn(ctx context.Context, photoID int64, column string, value any) error {
	return r.db.WithContext(ctx).Table(tablePhotos).
		Where("pk_photo_id = ?", photoID).
		Update(column, value).Error
}

// ReparentDirect moves photos whose denormalized reference names from.
func (r *photoRepository) ReparentDirect(ctx context.Context, from, to int64) (int64, error) {
	result := r.db.WithContext(ctx).Table(tablePhotos).
		Where("fk_catalog_id = ?", from).
		Update("fk_catalog_id", to)
	return result.RowsAffected, result.Error
}

func (r *photoRepository) driftedScope(q *gorm.DB, catalogID int64) *gorm.DB {
	return q.Where("fk_manta_id IN (?)", r.mantasOf(catalogID)).
		Where("(fk_catalog_id IS NULL OR fk_catalog_id <> ?)", catalogID)
}

func (r *photoRepository) DriftedInto(ctx context.Context, catalogID int64) ([]entities.Photo, error) {
	var photos []entities.Photo
	err := r.driftedScope(r.db.WithContext(ctx).Table(tablePhotos), catalogID).
		Order("pk_photo_id ASC").
		Find(&photos).Error
	return photos, err
}

func (r *photoRepository) ReparentViaManta(ctx context.Context, catalogID int64) (int64, error) {
	result := r.driftedScope(r.db.WithContext(ctx).Table(tablePhotos), catalogID).
		Update("fk_catalog_id", catalogID)
	return result.RowsAffected, result.Error
}

func catalogColumns(views []entities.View) []string {
	cols := make([]string, 0, len(views))
	for _, v := range views {
		cols = append(cols, entities.CatalogBestColumn(v))
	}
	return cols
}

// clearFlags sets every column to false on rows in q where any is true.
func clearFlags(q *gorm.DB, columns []string) (int64, error) {
	conds := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	updates := make(map[string]any, len(columns))
	for _, col := range columns {
		conds = append(conds, col+" = ?")
		args = append(args, true)
		updates[col] = false
	}
	result := q.Where("("+strings.Join(conds, " OR ")+")", args...).Updates(updates)
	return result.RowsAffected, result.Error
}
