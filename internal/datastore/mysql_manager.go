package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/conf"
)

// MySQLManager handles a MySQL/MariaDB catalog.
type MySQLManager struct {
	db       *gorm.DB
	location string // host:port/database for display
}

// MySQLDSN builds the go-sql-driver DSN for settings.
func MySQLDSN(settings *conf.MySQLSettings) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		settings.Username, settings.Password, settings.Host, settings.Port, settings.Database)
}

// NewMySQLManager connects to MySQL and configures the connection pool.
func NewMySQLManager(settings *conf.MySQLSettings, pool PoolConfig, cfg *gorm.Config) (*MySQLManager, error) {
	return newMySQLManagerDSN(MySQLDSN(settings), fmt.Sprintf("%s:%s/%s", settings.Host, settings.Port, settings.Database), pool, cfg)
}

func newMySQLManagerDSN(dsn, location string, pool PoolConfig, cfg *gorm.Config) (*MySQLManager, error) {
	db, err := gorm.Open(mysql.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := applyPool(db, pool); err != nil {
		return nil, err
	}
	return &MySQLManager{db: db, location: location}, nil
}

// Initialize creates the schema.
func (m *MySQLManager) Initialize() error {
	return migrate(m.db, DialectMySQL)
}

// DB returns the underlying GORM database.
func (m *MySQLManager) DB() *gorm.DB {
	return m.db
}

// Dialect returns DialectMySQL.
func (m *MySQLManager) Dialect() string {
	return DialectMySQL
}

// Path returns host:port/database.
func (m *MySQLManager) Path() string {
	return m.location
}

// Close closes the database connection.
func (m *MySQLManager) Close() error {
	return closeDB(m.db)
}
