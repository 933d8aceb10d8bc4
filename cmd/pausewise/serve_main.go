package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pausewise/pausewise/internal/app"
	"github.com/pausewise/pausewise/internal/cooldown"
	"github.com/pausewise/pausewise/internal/engine"
	"github.com/pausewise/pausewise/internal/events"
	"github.com/pausewise/pausewise/internal/infrastructure/db"
	httpserver "github.com/pausewise/pausewise/internal/interfaces/http"
	"github.com/pausewise/pausewise/internal/interfaces/http/handlers"
	"github.com/pausewise/pausewise/internal/ledger"
	"github.com/pausewise/pausewise/internal/stats"
	"github.com/pausewise/pausewise/internal/telemetry"
)

// runServe wires storage, engine, cooldown, events, and the HTTP server
// together and runs until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manager, err := db.NewManager(cfg.Database)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer manager.Close()

	metrics := telemetry.NewMetricsRegistry()

	// Duplicate rule ids panic here, before the server takes traffic
	ruleEngine := engine.New(engine.NewDefaultRegistry(cfg.Engine), metrics)

	// Cooldown store: Redis when configured, in-process otherwise. The
	// breaker wrapper fails open either way, so a flaky store can only
	// ever produce extra events, never suppress responses.
	var cooldownStore cooldown.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		defer client.Close()
		cooldownStore = cooldown.NewRedisStore(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("cooldown store on redis")
	} else {
		cooldownStore = cooldown.NewMemoryStore()
		log.Info().Msg("cooldown store in process")
	}
	cooldownStore = cooldown.NewBreakerStore(cooldownStore, "cooldown")

	var publisher events.Publisher = events.NewNopPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers,
			cfg.Kafka.InterventionTopic, cfg.Kafka.SavingsTopic)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("event publisher on kafka")
	}
	defer publisher.Close()

	service := app.NewService(app.Options{
		Engine:      ruleEngine,
		Ledger:      ledger.NewService(manager.Repository().Ledger),
		Stats:       stats.NewAggregator(manager.Repository().Ledger),
		Publisher:   publisher,
		Cooldown:    cooldownStore,
		CooldownTTL: cfg.Cooldown.TTL,
		Metrics:     metrics,
		Health:      manager.Health(),
	})

	server, err := httpserver.NewServer(cfg.Server, cfg.Auth,
		handlers.NewHandlers(service, version, manager.Driver()), metrics)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("goodbye")
	return nil
}
