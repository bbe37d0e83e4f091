package dbmanager

import (
	"context"
	"time"
)

// ConnectionStatus represents the current state of a database connection
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "db-connected"
	StatusDisconnected ConnectionStatus = "db-disconnected"
	StatusError        ConnectionStatus = "db-error"
)

// ConnectionConfig holds the configuration for a database connection
type ConnectionConfig struct {
	DSN            string
	ConnectTimeout time.Duration
	MaxOpenConns   int
	MaxIdleConns   int
	// MaxRows caps how many rows a single query materialises. Zero means no cap.
	MaxRows int
}

// QueryResult is an ordered list of rows keyed by column name.
type QueryResult struct {
	Rows      []map[string]interface{} `json:"rows"`
	RowCount  int                      `json:"rowCount"`
	Truncated bool                     `json:"truncated"`
}

// QueryExecutor runs raw SQL against the analytical store. Implementations must
// be safe for concurrent use.
type QueryExecutor interface {
	Query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error)
}

// Pinger is implemented by connections that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionInfo is the health snapshot of one named connection.
type ConnectionInfo struct {
	Name         string           `json:"name"`
	Status       ConnectionStatus `json:"status"`
	Error        string           `json:"error,omitempty"`
	LastChecked  time.Time        `json:"lastChecked"`
	OpenConns    int              `json:"openConns"`
	InUse        int              `json:"inUse"`
	Idle         int              `json:"idle"`
	WaitCount    int64            `json:"waitCount"`
	MaxOpenConns int              `json:"maxOpenConns"`
}
