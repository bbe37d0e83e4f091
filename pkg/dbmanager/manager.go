package dbmanager

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const pingTimeout = 3 * time.Second

// Connection names.
const (
	PrimaryConnection    = "primary"
	AnalyticalConnection = "analytical"
	RedisConnection      = "redis"
)

type connection struct {
	pinger Pinger
	info   ConnectionInfo
}

// Manager tracks the named connections of the process for health reporting
// and shutdown.
type Manager struct {
	connections map[string]*connection
	mu          sync.RWMutex
}

// NewManager creates a new connection manager
func NewManager() *Manager {
	return &Manager{
		connections: make(map[string]*connection),
	}
}

// Register adds a connection under name. It replaces any previous one.
func (m *Manager) Register(name string, pinger Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connections[name] = &connection{
		pinger: pinger,
		info: ConnectionInfo{
			Name:        name,
			Status:      StatusConnected,
			LastChecked: time.Now(),
		},
	}
	log.Info().Str("component", "dbmanager").Str("connection", name).Msg("connection registered")
}

// Ping checks a single connection and records the outcome.
func (m *Manager) Ping(ctx context.Context, name string) error {
	m.mu.RLock()
	conn, exists := m.connections[name]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("no connection found: %s", name)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	err := conn.pinger.Ping(pingCtx)

	m.mu.Lock()
	defer m.mu.Unlock()
	conn.info.LastChecked = time.Now()
	if err != nil {
		conn.info.Status = StatusError
		conn.info.Error = err.Error()
		return err
	}
	conn.info.Status = StatusConnected
	conn.info.Error = ""
	return nil
}

// HealthCheck pings every connection and returns their snapshots sorted by name.
func (m *Manager) HealthCheck(ctx context.Context) []ConnectionInfo {
	m.mu.RLock()
	names := make([]string, 0, len(m.connections))
	for name := range m.connections {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)

	infos := make([]ConnectionInfo, 0, len(names))
	for _, name := range names {
		if err := m.Ping(ctx, name); err != nil {
			log.Warn().Str("component", "dbmanager").Str("connection", name).Err(err).Msg("health check failed")
		}
		infos = append(infos, m.info(name))
	}
	return infos
}

func (m *Manager) info(name string) ConnectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn := m.connections[name]
	info := conn.info
	if s, ok := conn.pinger.(*PostgresExecutor); ok {
		stats := s.Stats()
		info.OpenConns = stats.OpenConnections
		info.InUse = stats.InUse
		info.Idle = stats.Idle
		info.WaitCount = stats.WaitCount
		info.MaxOpenConns = stats.MaxOpenConnections
	}
	return info
}

// Close closes every registered connection that can be closed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, conn := range m.connections {
		if closer, ok := conn.pinger.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to close %s: %w", name, err)
			}
		}
		conn.info.Status = StatusDisconnected
	}
	return firstErr
}
