package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pausewise/pausewise/internal/config"
)

const version = "v1.2.0"

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "pausewise",
		Short:   "Mindful spending backend",
		Version: version,
		Long: `pausewise is the backend for a mindful spending companion: it evaluates
context snapshots against intervention rules, keeps an append-only ledger
of avoided purchases, and aggregates savings statistics.

Run 'pausewise serve' to start the API server.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(),
		"Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override the configured log level (trace|debug|info|warn|error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Starts the HTTP API with the configured storage, cooldown store, and event publisher",
		RunE:  runServe,
	}

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a snapshot offline",
		Long:  "Runs the intervention rules against a snapshot JSON file without starting the server",
		RunE:  runEvaluate,
	}
	evaluateCmd.Flags().String("snapshot", "", "Path to a snapshot JSON file (required)")
	evaluateCmd.Flags().String("tier", "premium", "Subscription tier to evaluate as (free|pro|premium)")
	_ = evaluateCmd.MarkFlagRequired("snapshot")

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the registered intervention rules",
		RunE:  runRules,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the storage schema",
		Long:  "Applies the ledger schema for the postgres driver; sqlite migrates on open",
		RunE:  runMigrate,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if path := os.Getenv("PW_CONFIG"); path != "" {
		return path
	}
	return "config/pausewise.yaml"
}

// loadConfig loads configuration and sets up logging from it. Every
// subcommand goes through here first.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	initLogging(cfg.Logging.Level)
	return cfg, nil
}

// initLogging configures the global logger: human-readable console output
// on a terminal, structured JSON otherwise.
func initLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if parsed, err := zerolog.ParseLevel(level); err == nil && parsed != zerolog.NoLevel {
		zerolog.SetGlobalLevel(parsed)
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
