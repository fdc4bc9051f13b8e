package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/datastore"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

// NewSQLiteManager opens a migrated file backed SQLite store in t.TempDir().
func NewSQLiteManager(t *testing.T) datastore.Manager {
	t.Helper()
	m, err := datastore.NewManager(&conf.DatabaseSettings{
		Driver: conf.DriverSQLite,
		SQLite: conf.SQLiteSettings{Path: filepath.Join(t.TempDir(), "catalog.db")},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// OpenSQLite opens and migrates the SQLite store at path.
func OpenSQLite(t *testing.T, path string) *gorm.DB {
	t.Helper()
	m, err := datastore.NewManager(&conf.DatabaseSettings{
		Driver: conf.DriverSQLite,
		SQLite: conf.SQLiteSettings{Path: path},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })
	return m.DB()
}

// Fixture inserts catalog rows for tests.
type Fixture struct {
	t  *testing.T
	DB *gorm.DB
}

// NewFixture wraps db.
func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	return &Fixture{t: t, DB: db}
}

// CatalogWithID inserts a catalog entry with an explicit id.
func (f *Fixture) CatalogWithID(id int64, name string) *entities.CatalogEntity {
	f.t.Helper()
	entry := &entities.CatalogEntity{ID: id, Name: name}
	require.NoError(f.t, f.DB.Create(entry).Error)
	return entry
}

// Catalog inserts a catalog entry with an assigned id.
func (f *Fixture) Catalog(name string) *entities.CatalogEntity {
	f.t.Helper()
	entry := &entities.CatalogEntity{Name: name}
	require.NoError(f.t, f.DB.Create(entry).Error)
	return entry
}

// Sighting inserts a sighting on date.
func (f *Fixture) Sighting(date time.Time) *entities.Sighting {
	f.t.Helper()
	d := date.UTC()
	s := &entities.Sighting{SightingDate: &d}
	require.NoError(f.t, f.DB.Create(s).Error)
	return s
}

// Manta inserts a manta owned by catalogID. sighting may be nil.
func (f *Fixture) Manta(catalogID int64, sighting *entities.Sighting) *entities.Manta {
	f.t.Helper()
	m := &entities.Manta{CatalogID: catalogID}
	if sighting != nil {
		m.SightingID = &sighting.ID
	}
	require.NoError(f.t, f.DB.Create(m).Error)
	return m
}

// PhotoOption customizes a fixture photo.
type PhotoOption func(*entities.Photo)

// WithID fixes the photo id.
func WithID(id int64) PhotoOption {
	return func(p *entities.Photo) { p.ID = id }
}

// WithCatalogRef overrides the denormalized catalog reference. Nil leaves it NULL.
func WithCatalogRef(catalogID *int64) PhotoOption {
	return func(p *entities.Photo) { p.CatalogID = catalogID }
}

// WithCatalogBest flags the photo as catalog best for view.
func WithCatalogBest(view entities.View) PhotoOption {
	return func(p *entities.Photo) {
		if view == entities.ViewDorsal {
			p.IsBestCatalogDorsal = true
		} else {
			p.IsBestCatalogVentral = true
		}
	}
}

// WithMantaBest flags the photo as manta best for view.
func WithMantaBest(view entities.View) PhotoOption {
	return func(p *entities.Photo) {
		if view == entities.ViewDorsal {
			p.IsBestMantaDorsal = true
		} else {
			p.IsBestMantaVentral = true
		}
	}
}

// Photo inserts a photo for manta in view. The denormalized catalog
// reference defaults to the manta's owner.
func (f *Fixture) Photo(manta *entities.Manta, view entities.View, opts ...PhotoOption) *entities.Photo {
	f.t.Helper()
	catalogID := manta.CatalogID
	p := &entities.Photo{MantaID: manta.ID, CatalogID: &catalogID, View: view}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(f.t, f.DB.Create(p).Error)
	return p
}

// Embedding inserts a similarity row for catalogID.
func (f *Fixture) Embedding(catalogID int64, model string) *entities.SimilarityIndexRow {
	f.t.Helper()
	row := &entities.SimilarityIndexRow{CatalogID: catalogID, Embedding: []byte{1, 2, 3, 4}, Model: model}
	require.NoError(f.t, f.DB.Create(row).Error)
	return row
}

// SetPointer writes a catalog best pointer directly, bypassing the engine.
func (f *Fixture) SetPointer(catalogID int64, view entities.View, photoID *int64) {
	f.t.Helper()
	require.NoError(f.t, f.DB.Model(&entities.CatalogEntity{}).
		Where("pk_catalog_id = ?", catalogID).
		Update(entities.CatalogPointerColumn(view), photoID).Error)
}

// ReloadPhoto reads a photo back.
func (f *Fixture) ReloadPhoto(id int64) *entities.Photo {
	f.t.Helper()
	var p entities.Photo
	require.NoError(f.t, f.DB.First(&p, "pk_photo_id = ?", id).Error)
	return &p
}

// ReloadCatalog reads a catalog entry back.
func (f *Fixture) ReloadCatalog(id int64) *entities.CatalogEntity {
	f.t.Helper()
	var c entities.CatalogEntity
	require.NoError(f.t, f.DB.First(&c, "pk_catalog_id = ?", id).Error)
	return &c
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
