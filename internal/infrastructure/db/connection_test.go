package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pausewise/pausewise/internal/persistence"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default_config_valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "postgres_requires_dsn",
			mutate:  func(c *Config) { c.Driver = DriverPostgres },
			wantErr: "DSN is required",
		},
		{
			name:    "sqlite_requires_path",
			mutate:  func(c *Config) { c.Driver = DriverSQLite; c.Path = "" },
			wantErr: "path is required",
		},
		{
			name:    "unknown_driver",
			mutate:  func(c *Config) { c.Driver = "oracle" },
			wantErr: "unsupported database driver",
		},
		{
			name:    "idle_exceeds_open",
			mutate:  func(c *Config) { c.MaxIdleConns = 20 },
			wantErr: "max_idle_conns cannot exceed max_open_conns",
		},
		{
			name:    "zero_query_timeout",
			mutate:  func(c *Config) { c.QueryTimeout = 0 },
			wantErr: "query_timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewManager_Memory(t *testing.T) {
	manager, err := NewManager(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	assert.Equal(t, DriverMemory, manager.Driver())
	assert.Nil(t, manager.DB())
	require.NotNil(t, manager.Repository())
	require.NotNil(t, manager.Repository().Ledger)

	ctx := context.Background()
	require.NoError(t, manager.Health().Ping(ctx))

	health := manager.Health().Health(ctx)
	assert.True(t, health.Healthy)
	assert.Empty(t, health.Errors)
}

func TestNewManager_SQLite(t *testing.T) {
	config := DefaultConfig()
	config.Driver = DriverSQLite
	config.Path = filepath.Join(t.TempDir(), "pausewise.db")

	manager, err := NewManager(config)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	assert.Equal(t, DriverSQLite, manager.Driver())
	require.NotNil(t, manager.DB())

	ctx := context.Background()
	stored, err := manager.Repository().Ledger.Insert(ctx, persistence.LedgerEntry{
		ID:               "e1",
		UserID:           "u1",
		Amount:           12.5,
		Currency:         "USD",
		Category:         "food",
		InterventionType: "manual",
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", stored.ID)

	health := manager.Health().Health(ctx)
	assert.True(t, health.Healthy)
	assert.NotEmpty(t, health.ConnectionPool)
}

func TestNewManager_RejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Driver = "oracle"

	_, err := NewManager(config)
	require.Error(t, err)
}
