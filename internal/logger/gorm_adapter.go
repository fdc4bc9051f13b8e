package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// GormLoggerAdapter adapts Logger to GORM's logger.Interface. SQL is logged at
// trace level so it only shows when the datastore module is set to "trace".
//
//	gormLogger := logger.NewGormLoggerAdapter(central.Module("datastore"), 200*time.Millisecond)
//	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
type GormLoggerAdapter struct {
	logger        Logger
	slowThreshold time.Duration
}

// NewGormLoggerAdapter creates a new GORM logger adapter. Queries slower than
// slowThreshold are logged at warn level; 0 disables slow query warnings.
func NewGormLoggerAdapter(logger Logger, slowThreshold time.Duration) *GormLoggerAdapter {
	if logger == nil {
		logger = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	return &GormLoggerAdapter{
		logger:        logger,
		slowThreshold: slowThreshold,
	}
}

// LogMode returns the adapter itself; levels come from the central config.
func (a *GormLoggerAdapter) LogMode(_ gorm_logger.LogLevel) gorm_logger.Interface {
	return a
}

// Info maps GORM's chatty info level to debug.
func (a *GormLoggerAdapter) Info(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Debug(fmt.Sprintf(msg, data...))
}

func (a *GormLoggerAdapter) Warn(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
}

func (a *GormLoggerAdapter) Error(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Error(fmt.Sprintf(msg, data...))
}

// Trace logs SQL statements. Failed statements (other than record-not-found)
// and slow statements are logged at warn level, everything else at trace.
func (a *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	log := a.logger.WithContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		log.Warn("query error",
			String("sql", sql),
			Int64("rows_affected", rows),
			Int64("duration_ms", elapsed.Milliseconds()),
			Error(err))

	case a.slowThreshold > 0 && elapsed > a.slowThreshold:
		log.Warn("slow query",
			String("sql", sql),
			Int64("rows_affected", rows),
			Int64("duration_ms", elapsed.Milliseconds()),
			Duration("threshold", a.slowThreshold))

	default:
		log.Trace("sql query",
			String("sql", sql),
			Int64("rows_affected", rows),
			Int64("duration_ms", elapsed.Milliseconds()))
	}
}
