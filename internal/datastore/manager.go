// Package datastore opens the relational store that holds the manta catalog
// and owns its schema.
package datastore

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/errors"
	"github.com/mantamatcher/catalogcore/internal/logger"
)

// Dialect names returned by Manager.Dialect
const (
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// Manager defines the interface for catalog database lifecycle.
type Manager interface {
	// Initialize migrates the schema and creates the best-flag indexes.
	Initialize() error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Dialect reports which SQL dialect the store speaks.
	Dialect() string
	// Path returns a display location (file path or host/database).
	Path() string
	// Close closes the database connection.
	Close() error
}

// PoolConfig tunes the database/sql connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewManager opens the store selected by settings.Driver.
func NewManager(settings *conf.DatabaseSettings, log logger.Logger) (Manager, error) {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	gormCfg := gormConfig(log, settings.SlowQueryThreshold)
	pool := PoolConfig{
		MaxOpenConns:    settings.MaxOpenConns,
		MaxIdleConns:    settings.MaxIdleConns,
		ConnMaxLifetime: settings.ConnMaxLifetime,
	}

	switch strings.ToLower(settings.Driver) {
	case conf.DriverSQLite, "":
		return NewSQLiteManager(settings.SQLite.Path, gormCfg)
	case conf.DriverMySQL:
		return NewMySQLManager(&settings.MySQL, pool, gormCfg)
	case conf.DriverPostgres:
		return NewPostgresManager(settings.Postgres.DSN, pool, gormCfg)
	default:
		return nil, errors.Newf("unsupported database driver %q", settings.Driver).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// gormConfig is shared by every manager. TranslateError maps driver unique
// violations to gorm.ErrDuplicatedKey.
func gormConfig(log logger.Logger, slowThreshold time.Duration) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log, slowThreshold),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// models lists every table in migration order.
func models() []any {
	return []any{
		&entities.CatalogEntity{},
		&entities.Sighting{},
		&entities.Manta{},
		&entities.Photo{},
		&entities.SimilarityIndexRow{},
		&entities.AuditEntry{},
	}
}

// migrate runs AutoMigrate and, where the dialect supports partial indexes,
// enforces at most one flagged best photo per owner and view.
func migrate(db *gorm.DB, dialect string) error {
	if err := db.AutoMigrate(models()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate catalog schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if dialect == DialectMySQL {
		// MySQL has no partial indexes; the engine alone keeps flags unique.
		return nil
	}

	for _, stmt := range bestFlagIndexes() {
		if err := db.Exec(stmt).Error; err != nil {
			return errors.New(fmt.Errorf("failed to create best-photo index: %w", err)).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("statement", stmt).
				Build()
		}
	}
	return nil
}

func bestFlagIndexes() []string {
	stmts := make([]string, 0, 4)
	for _, view := range entities.CanonicalViews {
		catalogCol := entities.CatalogBestColumn(view)
		mantaCol := entities.MantaBestColumn(view)
		stmts = append(stmts,
			fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS uq_photos_best_catalog_%s ON photos (fk_catalog_id) WHERE %s", view, catalogCol),
			fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS uq_photos_best_manta_%s ON photos (fk_manta_id) WHERE %s", view, mantaCol),
		)
	}
	return stmts
}

func applyPool(db *gorm.DB, pool PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
