// Package config loads application configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pausewise/pausewise/internal/engine"
	"github.com/pausewise/pausewise/internal/infrastructure/db"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Auth     AuthConfig        `yaml:"auth"`
	Database db.Config         `yaml:"database"`
	Redis    RedisConfig       `yaml:"redis"`
	Kafka    KafkaConfig       `yaml:"kafka"`
	Cooldown CooldownConfig    `yaml:"cooldown"`
	Engine   engine.RuleConfig `yaml:"engine"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
}

// AuthConfig holds token verification settings. DevMode accepts identity
// headers instead of signed tokens and must stay off in production.
type AuthConfig struct {
	Secret  string `yaml:"secret"`
	DevMode bool   `yaml:"dev_mode"`
}

// RedisConfig holds the optional Redis connection. An empty addr selects the
// in-process cooldown store.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// KafkaConfig holds the optional Kafka connection. Empty brokers disable
// event publishing.
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	InterventionTopic string   `yaml:"intervention_topic"`
	SavingsTopic      string   `yaml:"savings_topic"`
}

// CooldownConfig controls how often a rule may emit events per user.
type CooldownConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    5,
			RateLimitBurst:  10,
		},
		Auth: AuthConfig{
			DevMode: true,
		},
		Database: db.DefaultConfig(),
		Kafka: KafkaConfig{
			InterventionTopic: "pausewise.interventions",
			SavingsTopic:      "pausewise.savings",
		},
		Cooldown: CooldownConfig{
			TTL: time.Hour,
		},
		Engine: engine.DefaultRuleConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the YAML file at path, if present, then
// applies environment overrides and validates the result. An empty path
// loads defaults plus environment.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *Config) {
	if addr := os.Getenv("PW_HTTP_ADDR"); addr != "" {
		config.Server.Addr = addr
	}

	if secret := os.Getenv("PW_AUTH_SECRET"); secret != "" {
		config.Auth.Secret = secret
	}
	if devMode := os.Getenv("PW_DEV_MODE"); devMode != "" {
		if val, err := strconv.ParseBool(devMode); err == nil {
			config.Auth.DevMode = val
		}
	}

	if driver := os.Getenv("PW_DB_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		config.Database.DSN = dsn
		if os.Getenv("PW_DB_DRIVER") == "" {
			config.Database.Driver = db.DriverPostgres
		}
	}
	if path := os.Getenv("PW_DB_PATH"); path != "" {
		config.Database.Path = path
		if os.Getenv("PW_DB_DRIVER") == "" {
			config.Database.Driver = db.DriverSQLite
		}
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		parts := strings.Split(brokers, ",")
		config.Kafka.Brokers = config.Kafka.Brokers[:0]
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				config.Kafka.Brokers = append(config.Kafka.Brokers, trimmed)
			}
		}
	}

	if level := os.Getenv("PW_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// Validate ensures the configuration is consistent.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr cannot be empty")
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("rate_limit_rps must be positive, got %f", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("rate_limit_burst must be positive, got %d", c.Server.RateLimitBurst)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	if !c.Auth.DevMode && c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required when dev_mode is off")
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if len(c.Kafka.Brokers) > 0 {
		if c.Kafka.InterventionTopic == "" || c.Kafka.SavingsTopic == "" {
			return fmt.Errorf("kafka topics cannot be empty when brokers are set")
		}
	}

	if c.Cooldown.TTL <= 0 {
		return fmt.Errorf("cooldown ttl must be positive, got %s", c.Cooldown.TTL)
	}

	if err := validateEngine(c.Engine); err != nil {
		return err
	}

	return nil
}

// validateEngine checks rule thresholds stay in their meaningful ranges.
func validateEngine(cfg engine.RuleConfig) error {
	if cfg.MoodRiskThreshold < 1 || cfg.MoodRiskThreshold > 10 {
		return fmt.Errorf("engine mood_risk_threshold must be between 1 and 10, got %d", cfg.MoodRiskThreshold)
	}
	if cfg.RainMoodThreshold < 1 || cfg.RainMoodThreshold > 10 {
		return fmt.Errorf("engine rain_mood_threshold must be between 1 and 10, got %d", cfg.RainMoodThreshold)
	}
	if cfg.MoodMerchantRadiusM <= 0 || cfg.LuxuryRadiusM <= 0 {
		return fmt.Errorf("engine merchant radii must be positive")
	}
	if cfg.MinSleepHours <= 0 {
		return fmt.Errorf("engine min_sleep_hours must be positive, got %f", cfg.MinSleepHours)
	}
	if cfg.VelocityMaxPurchases <= 0 {
		return fmt.Errorf("engine velocity_max_purchases must be positive, got %d", cfg.VelocityMaxPurchases)
	}
	if cfg.VelocitySavingsRate <= 0 || cfg.VelocitySavingsRate > 1 {
		return fmt.Errorf("engine velocity_savings_rate must be in (0, 1], got %f", cfg.VelocitySavingsRate)
	}
	return nil
}
