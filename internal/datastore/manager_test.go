package datastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

func newTestManager(t *testing.T) Manager {
	t.Helper()
	m, err := NewManager(&conf.DatabaseSettings{
		Driver: conf.DriverSQLite,
		SQLite: conf.SQLiteSettings{Path: filepath.Join(t.TempDir(), "catalog.db")},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSQLiteManagerInitialize(t *testing.T) {
	m := newTestManager(t)

	assert.Equal(t, DialectSQLite, m.Dialect())
	for _, model := range models() {
		assert.True(t, m.DB().Migrator().HasTable(model), "table for %T", model)
	}
	assert.True(t, m.DB().Migrator().HasIndex(&entities.Photo{}, "uq_photos_best_catalog_ventral"))
	assert.True(t, m.DB().Migrator().HasIndex(&entities.Photo{}, "uq_photos_best_manta_dorsal"))

	// Initialize is idempotent
	require.NoError(t, m.Initialize())
}

func TestBestFlagIndexRejectsSecondFlaggedPhoto(t *testing.T) {
	db := newTestManager(t).DB()

	catalog := entities.CatalogEntity{Name: "Tawaki"}
	require.NoError(t, db.Create(&catalog).Error)
	manta := entities.Manta{CatalogID: catalog.ID}
	require.NoError(t, db.Create(&manta).Error)

	first := entities.Photo{MantaID: manta.ID, CatalogID: &catalog.ID, View: entities.ViewVentral, IsBestCatalogVentral: true}
	require.NoError(t, db.Create(&first).Error)

	second := entities.Photo{MantaID: manta.ID, CatalogID: &catalog.ID, View: entities.ViewVentral, IsBestCatalogVentral: true}
	err := db.Create(&second).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	// A dorsal best alongside the ventral one is fine.
	dorsal := entities.Photo{MantaID: manta.ID, CatalogID: &catalog.ID, View: entities.ViewDorsal, IsBestCatalogDorsal: true}
	require.NoError(t, db.Create(&dorsal).Error)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := newTestManager(t).DB()

	err := db.Create(&entities.Manta{CatalogID: 999}).Error
	require.Error(t, err)
}

func TestNewManagerRejectsUnknownDriver(t *testing.T) {
	_, err := NewManager(&conf.DatabaseSettings{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(&conf.MySQLSettings{Host: "db", Port: "3306", Username: "catalog", Password: "pw", Database: "mantas"})
	assert.Equal(t, "catalog:pw@tcp(db:3306)/mantas?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}

func TestPostgresManagerRejectsBadDSN(t *testing.T) {
	_, err := NewPostgresManager("postgres://%zz", PoolConfig{}, gormConfig(nil, 0))
	require.Error(t, err)
}
