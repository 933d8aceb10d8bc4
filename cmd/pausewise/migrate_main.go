package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pausewise/pausewise/internal/infrastructure/db"
	"github.com/pausewise/pausewise/internal/persistence/postgres"
)

// runMigrate applies the ledger schema. Postgres applies it explicitly so
// operators control when DDL runs; sqlite migrates when the store opens.
func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manager, err := db.NewManager(cfg.Database)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer manager.Close()

	switch manager.Driver() {
	case db.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := manager.DB().ExecContext(ctx, postgres.Schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		fmt.Println("postgres schema applied")
	case db.DriverSQLite:
		fmt.Println("sqlite schema is applied on open, nothing to do")
	default:
		fmt.Println("memory driver has no schema")
	}
	return nil
}
