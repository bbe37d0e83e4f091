package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// PostgresExecutor runs statements on a pooled lib/pq connection.
type PostgresExecutor struct {
	db      *sql.DB
	maxRows int
}

func NewPostgresExecutor(config ConnectionConfig) (*PostgresExecutor, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", withConnectTimeout(config.DSN, config.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresExecutorFromDB(db, config.MaxRows), nil
}

// NewPostgresExecutorFromDB wraps an existing pool.
func NewPostgresExecutorFromDB(db *sql.DB, maxRows int) *PostgresExecutor {
	return &PostgresExecutor{db: db, maxRows: maxRows}
}

// Query executes query as-is. Rows beyond the configured cap are dropped and
// the result is flagged as truncated.
func (e *PostgresExecutor) Query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error) {
	startTime := time.Now()

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	results, truncated, err := processRows(rows, e.maxRows)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("component", "dbmanager").
		Int("rows", len(results)).
		Dur("elapsed", time.Since(startTime)).
		Msg("PostgresExecutor -> Query -> done")

	return &QueryResult{
		Rows:      results,
		RowCount:  len(results),
		Truncated: truncated,
	}, nil
}

// Exec runs a statement that returns no rows.
func (e *PostgresExecutor) Exec(ctx context.Context, stmt string, args ...interface{}) error {
	if _, err := e.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

func (e *PostgresExecutor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *PostgresExecutor) Stats() sql.DBStats {
	return e.db.Stats()
}

func (e *PostgresExecutor) Close() error {
	return e.db.Close()
}
