package datastore

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresManager handles a PostgreSQL catalog.
type PostgresManager struct {
	db       *gorm.DB
	location string
}

// NewPostgresManager connects using a libpq style or URL DSN.
func NewPostgresManager(dsn string, pool PoolConfig, cfg *gorm.Config) (*PostgresManager, error) {
	parsed, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	if err := applyPool(db, pool); err != nil {
		return nil, err
	}

	return &PostgresManager{
		db:       db,
		location: fmt.Sprintf("%s:%d/%s", parsed.Host, parsed.Port, parsed.Database),
	}, nil
}

// Initialize creates the schema.
func (m *PostgresManager) Initialize() error {
	return migrate(m.db, DialectPostgres)
}

// DB returns the underlying GORM database.
func (m *PostgresManager) DB() *gorm.DB {
	return m.db
}

// Dialect returns DialectPostgres.
func (m *PostgresManager) Dialect() string {
	return DialectPostgres
}

// Path returns host:port/database.
func (m *PostgresManager) Path() string {
	return m.location
}

// Close closes the database connection.
func (m *PostgresManager) Close() error {
	return closeDB(m.db)
}
