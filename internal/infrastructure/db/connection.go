// Package db wires the configured storage driver into repository instances
// and exposes connection health.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	"github.com/pausewise/pausewise/internal/persistence"
	"github.com/pausewise/pausewise/internal/persistence/memory"
	"github.com/pausewise/pausewise/internal/persistence/postgres"
	"github.com/pausewise/pausewise/internal/persistence/sqlite"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds storage configuration for all drivers.
type Config struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// DefaultConfig returns reasonable defaults. The memory driver keeps local
// development dependency-free.
func DefaultConfig() Config {
	return Config{
		Driver:          DriverMemory,
		Path:            "data/pausewise.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    30 * time.Second,
	}
}

// Validate checks driver-specific requirements.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("database DSN is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("database path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot exceed max_open_conns")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}
	return nil
}

// Manager owns the storage connection and repository instances.
type Manager struct {
	db     *sqlx.DB
	store  *sqlite.Store
	config Config
	repos  *persistence.Repository
	health *healthChecker
}

// NewManager opens the configured driver and builds the repositories.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Driver {
	case DriverPostgres:
		return newPostgresManager(config)
	case DriverSQLite:
		return newSQLiteManager(config)
	default:
		return newMemoryManager(config), nil
	}
}

func newPostgresManager(config Config) (*Manager, error) {
	db, err := sqlx.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("driver", DriverPostgres).Msg("storage connected")
	return &Manager{
		db:     db,
		config: config,
		repos: &persistence.Repository{
			Ledger: postgres.NewLedgerRepo(db, config.QueryTimeout),
		},
		health: &healthChecker{db: db, timeout: config.QueryTimeout},
	}, nil
}

func newSQLiteManager(config Config) (*Manager, error) {
	store, err := sqlite.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	log.Info().Str("driver", DriverSQLite).Str("path", config.Path).Msg("storage connected")
	return &Manager{
		db:     store.DB(),
		store:  store,
		config: config,
		repos:  &persistence.Repository{Ledger: store},
		health: &healthChecker{db: store.DB(), timeout: config.QueryTimeout},
	}, nil
}

func newMemoryManager(config Config) *Manager {
	log.Info().Str("driver", DriverMemory).Msg("storage connected")
	return &Manager{
		config: config,
		repos:  &persistence.Repository{Ledger: memory.NewStore()},
		health: &healthChecker{},
	}
}

// Repository returns the repository collection.
func (m *Manager) Repository() *persistence.Repository {
	return m.repos
}

// Health returns the health checker interface.
func (m *Manager) Health() persistence.RepositoryHealth {
	return m.health
}

// DB returns the underlying handle for migrations, or nil for the memory
// driver.
func (m *Manager) DB() *sqlx.DB {
	return m.db
}

// Driver reports which storage driver is active.
func (m *Manager) Driver() string {
	return m.config.Driver
}

// Close closes the storage connection.
func (m *Manager) Close() error {
	if m.store != nil {
		return m.store.Close()
	}
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// healthChecker implements persistence.RepositoryHealth. A nil db means the
// memory driver, which is always healthy.
type healthChecker struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Health returns current repository health status.
func (h *healthChecker) Health(ctx context.Context) persistence.HealthCheck {
	if h.db == nil {
		return persistence.HealthCheck{
			Healthy:        true,
			ConnectionPool: map[string]int{"open": 0},
			LastCheck:      time.Now(),
			ResponseTimeMS: 0,
		}
	}

	start := time.Now()

	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var errors []string
	healthy := true

	if err := h.db.PingContext(pingCtx); err != nil {
		errors = append(errors, fmt.Sprintf("ping failed: %v", err))
		healthy = false
	}

	stats := h.db.Stats()
	connectionPool := map[string]int{
		"max_open":      stats.MaxOpenConnections,
		"open":          stats.OpenConnections,
		"in_use":        stats.InUse,
		"idle":          stats.Idle,
		"wait_count":    int(stats.WaitCount),
		"wait_duration": int(stats.WaitDuration.Milliseconds()),
	}

	return persistence.HealthCheck{
		Healthy:        healthy,
		Errors:         errors,
		ConnectionPool: connectionPool,
		LastCheck:      time.Now(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
}

// Ping tests basic connectivity to the backing store.
func (h *healthChecker) Ping(ctx context.Context) error {
	if h.db == nil {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return h.db.PingContext(pingCtx)
}
