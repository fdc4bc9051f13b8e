package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteManager handles a file backed SQLite catalog.
type SQLiteManager struct {
	db     *gorm.DB
	dbPath string
}

// sqliteDSN enables WAL, a 5s busy timeout and foreign keys. _txlock=immediate
// makes BEGIN take the write lock, so write transactions serialize at start
// instead of failing on lock upgrade.
func sqliteDSN(path string) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON&_txlock=immediate", path)
}

// NewSQLiteManager opens (creating if needed) the database at dbPath.
func NewSQLiteManager(dbPath string, cfg *gorm.Config) (*SQLiteManager, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(dbPath)), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteManager{db: db, dbPath: dbPath}, nil
}

// Initialize creates the schema.
func (m *SQLiteManager) Initialize() error {
	return migrate(m.db, DialectSQLite)
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Dialect returns DialectSQLite.
func (m *SQLiteManager) Dialect() string {
	return DialectSQLite
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	return closeDB(m.db)
}
