package dbmanager

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PrimaryWrapper holds the gorm connection to the portal's own tables
// (users, pharmacies, medications, auth_history).
type PrimaryWrapper struct {
	db *gorm.DB
}

// OpenPrimary connects gorm to the primary Postgres database.
func OpenPrimary(config ConnectionConfig, debug bool) (*PrimaryWrapper, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(withConnectTimeout(config.DSN, config.ConnectTimeout)), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &PrimaryWrapper{db: db}, nil
}

// NewPrimaryWrapper wraps an existing gorm connection.
func NewPrimaryWrapper(db *gorm.DB) *PrimaryWrapper {
	return &PrimaryWrapper{db: db}
}

func (w *PrimaryWrapper) DB() *gorm.DB {
	return w.db
}

// Query runs a raw statement through gorm and returns the rows as maps.
func (w *PrimaryWrapper) Query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error) {
	rows, err := w.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	results, truncated, err := processRows(rows, 0)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Rows: results, RowCount: len(results), Truncated: truncated}, nil
}

func (w *PrimaryWrapper) Ping(ctx context.Context) error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (w *PrimaryWrapper) Close() error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
