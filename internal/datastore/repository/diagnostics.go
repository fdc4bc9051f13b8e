package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

// FlaggedPhoto is one photo carrying a best flag, keyed by the flag's owner
// (catalog entry for catalog flags, manta for manta flags).
type FlaggedPhoto struct {
	OwnerID int64
	PhotoID int64
}

// PointerTarget describes what a catalog best pointer resolves to.
type PointerTarget struct {
	CatalogID      int64
	PhotoID        int64
	FoundID        *int64 // nil when the pointer dangles
	PhotoCatalogID *int64
	MantaCatalogID *int64
	Flagged        *bool
}

// DriftedPhoto is a photo whose denormalized reference disagrees with its manta.
type DriftedPhoto struct {
	PhotoID        int64
	MantaID        int64
	PhotoCatalogID *int64
	MantaCatalogID int64
}

// OwnerCount pairs a catalog entry with a row count.
type OwnerCount struct {
	CatalogID int64
	Count     int64
}

// ViewCoverage summarizes best selection for one view.
type ViewCoverage struct {
	CatalogsWithPhotos  int64
	CatalogsWithBest    int64
	CatalogsMissingBest int64
}

// DiagnosticsRepository runs read-only consistency scans. A zero catalogID
// scans the whole catalog.
type DiagnosticsRepository interface {
	// CatalogFlags returns every photo carrying the catalog best flag for view.
	CatalogFlags(ctx context.Context, view entities.View, catalogID int64) ([]FlaggedPhoto, error)
	// MantaFlags returns every photo carrying the manta best flag for view.
	MantaFlags(ctx context.Context, view entities.View, catalogID int64) ([]FlaggedPhoto, error)
	// PointerTargets resolves every non-null catalog pointer for view.
	PointerTargets(ctx context.Context, view entities.View, catalogID int64) ([]PointerTarget, error)
	// DriftedPhotos lists photos whose denormalized reference differs from their manta's owner.
	DriftedPhotos(ctx context.Context, catalogID int64) ([]DriftedPhoto, error)
	// DuplicateSimilarityRows lists entries owning more than one similarity row.
	DuplicateSimilarityRows(ctx context.Context, catalogID int64) ([]OwnerCount, error)
	// Coverage counts best selection coverage for view.
	Coverage(ctx context.Context, view entities.View, catalogID int64) (ViewCoverage, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) DiagnosticsRepository
}

// diagnosticsRepository implements DiagnosticsRepository.
type diagnosticsRepository struct {
	db *gorm.DB
}

// NewDiagnosticsRepository creates a new DiagnosticsRepository.
func NewDiagnosticsRepository(db *gorm.DB) DiagnosticsRepository {
	return &diagnosticsRepository{db: db}
}

func (r *diagnosticsRepository) WithTx(tx *gorm.DB) DiagnosticsRepository {
	return &diagnosticsRepository{db: tx}
}

func (r *diagnosticsRepository) CatalogFlags(ctx context.Context, view entities.View, catalogID int64) ([]FlaggedPhoto, error) {
	var rows []FlaggedPhoto
	q := r.db.WithContext(ctx).Table(tablePhotos).
		Select("fk_catalog_id AS owner_id, pk_photo_id AS photo_id").
		Where(entities.CatalogBestColumn(view)+" = ?", true).
		Where("fk_catalog_id IS NOT NULL")
	if catalogID > 0 {
		q = q.Where("fk_catalog_id = ?", catalogID)
	}
	err := q.Order("fk_catalog_id ASC, pk_photo_id ASC").Scan(&rows).Error
	return rows, err
}

func (r *diagnosticsRepository) MantaFlags(ctx context.Context, view entities.View, catalogID int64) ([]FlaggedPhoto, error) {
	var rows []FlaggedPhoto
	q := r.db.WithContext(ctx).Table(tablePhotos+" AS p").
		Select("p.fk_manta_id AS owner_id, p.pk_photo_id AS photo_id").
		Where("p."+entities.MantaBestColumn(view)+" = ?", true)
	if catalogID > 0 {
		q = q.Joins("JOIN "+tableMantas+" m ON m.pk_manta_id = p.fk_manta_id").
			Where("m.fk_catalog_id = ?", catalogID)
	}
	err := q.Order("p.fk_manta_id ASC, p.pk_photo_id ASC").Scan(&rows).Error
	return rows, err
}

func (r *diagnosticsRepository) PointerTargets(ctx context.Context, view entities.View, catalogID int64) ([]PointerTarget, error) {
	ptr := "c." + entities.CatalogPointerColumn(view)
	var rows []PointerTarget
	q := r.db.WithContext(ctx).Table(tableCatalog + " AS c").
		Select("c.pk_catalog_id AS catalog_id, " + ptr + " AS photo_id, p.pk_photo_id AS found_id, " +
			"p.fk_catalog_id AS photo_catalog_id, m.fk_catalog_id AS manta_catalog_id, " +
			"p." + entities.CatalogBestColumn(view) + " AS flagged").
		Joins("LEFT JOIN " + tablePhotos + " p ON p.pk_photo_id = " + ptr).
		Joins("LEFT JOIN " + tableMantas + " m ON m.pk_manta_id = p.fk_manta_id").
		Where(ptr + " IS NOT NULL")
	if catalogID > 0 {
		q = q.Where("c.pk_catalog_id = ?", catalogID)
	}
	err := q.Order("c.pk_catalog_id ASC").Scan(&rows).Error
	return rows, err
}

func (r *diagnosticsRepository) DriftedPhotos(ctx context.Context, catalogID int64) ([]DriftedPhoto, error) {
	var rows []DriftedPhoto
	q := r.db.WithContext(ctx).Table(tablePhotos + " AS p").
		Select("p.pk_photo_id AS photo_id, p.fk_manta_id AS manta_id, " +
			"p.fk_catalog_id AS photo_catalog_id, m.fk_catalog_id AS manta_catalog_id").
		Joins("JOIN " + tableMantas + " m ON m.pk_manta_id = p.fk_manta_id").
		Where("(p.fk_catalog_id IS NULL OR p.fk_catalog_id <> m.fk_catalog_id)")
	if catalogID > 0 {
		q = q.Where("(p.fk_catalog_id = ? OR m.fk_catalog_id = ?)", catalogID, catalogID)
	}
	err := q.Order("p.pk_photo_id ASC").Scan(&rows).Error
	return rows, err
}

func (r *diagnosticsRepository) DuplicateSimilarityRows(ctx context.Context, catalogID int64) ([]OwnerCount, error) {
	var rows []OwnerCount
	q := r.db.WithContext(ctx).Table(tableEmbeddings).
		Select("pk_catalog_id AS catalog_id, COUNT(*) AS count")
	if catalogID > 0 {
		q = q.Where("pk_catalog_id = ?", catalogID)
	}
	err := q.Group("pk_catalog_id").Having("COUNT(*) > 1").Order("pk_catalog_id ASC").Scan(&rows).Error
	return rows, err
}

func (r *diagnosticsRepository) Coverage(ctx context.Context, view entities.View, catalogID int64) (ViewCoverage, error) {
	var cov ViewCoverage
	ptr := "c." + entities.CatalogPointerColumn(view)

	owners := func() *gorm.DB {
		q := r.db.WithContext(ctx).Table(tablePhotos+" AS p").
			Joins("JOIN "+tableMantas+" m ON m.pk_manta_id = p.fk_manta_id").
			Joins("JOIN "+tableCatalog+" c ON c.pk_catalog_id = m.fk_catalog_id").
			Where("p.photo_view = ?", view)
		if catalogID > 0 {
			q = q.Where("m.fk_catalog_id = ?", catalogID)
		}
		return q
	}

	if err := owners().Distinct("m.fk_catalog_id").Count(&cov.CatalogsWithPhotos).Error; err != nil {
		return cov, err
	}
	if err := owners().Where(ptr + " IS NULL").Distinct("m.fk_catalog_id").Count(&cov.CatalogsMissingBest).Error; err != nil {
		return cov, err
	}

	q := r.db.WithContext(ctx).Table(tableCatalog + " AS c").Where(ptr + " IS NOT NULL")
	if catalogID > 0 {
		q = q.Where("c.pk_catalog_id = ?", catalogID)
	}
	if err := q.Count(&cov.CatalogsWithBest).Error; err != nil {
		return cov, err
	}
	return cov, nil
}
