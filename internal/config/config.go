package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application. Every key is a flat
// environment variable; sections are squashed when decoding.
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Ledger    LedgerConfig    `mapstructure:",squash"`
	Tracing   TracingConfig   `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port            string `mapstructure:"SERVER_PORT"`
	Host            string `mapstructure:"SERVER_HOST"`
	Env             string `mapstructure:"ENV"`
	ReadTimeout     string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout    string `mapstructure:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout string `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
	AutoMigrate     bool   `mapstructure:"DATABASE_AUTO_MIGRATE"`
}

type RedisConfig struct {
	// URL is optional. Without it postings are not guarded by an idempotency claim.
	URL        string `mapstructure:"REDIS_URL"`
	PostingTTL string `mapstructure:"REDIS_POSTING_TTL"`
}

type SchedulerConfig struct {
	// Cron is a six field spec (with seconds) for the auto-post job.
	Cron       string `mapstructure:"SCHEDULER_CRON"`
	Timezone   string `mapstructure:"SCHEDULER_TIMEZONE"`
	RunTimeout string `mapstructure:"SCHEDULER_RUN_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
	Output string `mapstructure:"LOG_OUTPUT"`
}

type LedgerConfig struct {
	// URL of the ledger posting endpoint. Empty logs postings instead.
	URL     string `mapstructure:"LEDGER_URL"`
	Timeout string `mapstructure:"LEDGER_TIMEOUT"`
	NodeID  int64  `mapstructure:"LEDGER_NODE_ID"`
}

type TracingConfig struct {
	Endpoint    string `mapstructure:"OTEL_ENDPOINT"`
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	Insecure    bool   `mapstructure:"OTEL_INSECURE"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "15s",
	"SERVER_WRITE_TIMEOUT":       "15s",
	"SERVER_SHUTDOWN_TIMEOUT":    "30s",
	"DATABASE_URL":               "",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "5m",
	"DATABASE_AUTO_MIGRATE":      true,
	"REDIS_URL":                  "",
	"REDIS_POSTING_TTL":          "720h",
	"SCHEDULER_CRON":             "0 0 1 * * *",
	"SCHEDULER_TIMEZONE":         "Asia/Jakarta",
	"SCHEDULER_RUN_TIMEOUT":      "10m",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
	"LOG_OUTPUT":                 "stdout",
	"LEDGER_URL":                 "",
	"LEDGER_TIMEOUT":             "10s",
	"LEDGER_NODE_ID":             1,
	"OTEL_ENDPOINT":              "",
	"OTEL_SERVICE_NAME":          "amortization-engine",
	"OTEL_INSECURE":              true,
	"HEALTH_CHECK_TIMEOUT":       "5s",
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be greater than 0")
	}

	durations := map[string]string{
		"SERVER_READ_TIMEOUT":        c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":       c.Server.WriteTimeout,
		"SERVER_SHUTDOWN_TIMEOUT":    c.Server.ShutdownTimeout,
		"DATABASE_CONN_MAX_LIFETIME": c.Database.ConnMaxLifetime,
		"REDIS_POSTING_TTL":          c.Redis.PostingTTL,
		"LEDGER_TIMEOUT":             c.Ledger.Timeout,
		"HEALTH_CHECK_TIMEOUT":       c.Health.Timeout,
		"SCHEDULER_RUN_TIMEOUT":      c.Scheduler.RunTimeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
	}

	if _, err := CronParser.Parse(c.Scheduler.Cron); err != nil {
		return fmt.Errorf("SCHEDULER_CRON must be a valid cron spec: %w", err)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	if c.Ledger.NodeID < 0 || c.Ledger.NodeID > 1023 {
		return fmt.Errorf("LEDGER_NODE_ID must be between 0 and 1023")
	}

	return nil
}

// CronParser parses the six field specs accepted by SCHEDULER_CRON.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Address returns host:port the HTTP server listens on
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

// GetReadTimeout returns the server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	return mustDuration(c.Server.ReadTimeout)
}

// GetWriteTimeout returns the server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	return mustDuration(c.Server.WriteTimeout)
}

// GetShutdownTimeout returns the graceful shutdown timeout as duration
func (c *Config) GetShutdownTimeout() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout)
}

// GetConnMaxLifetime returns the pooled connection lifetime as duration
func (c *Config) GetConnMaxLifetime() time.Duration {
	return mustDuration(c.Database.ConnMaxLifetime)
}

// GetPostingTTL returns how long posting claims are kept in redis
func (c *Config) GetPostingTTL() time.Duration {
	return mustDuration(c.Redis.PostingTTL)
}

// GetLedgerTimeout returns the ledger request timeout as duration
func (c *Config) GetLedgerTimeout() time.Duration {
	return mustDuration(c.Ledger.Timeout)
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	return mustDuration(c.Health.Timeout)
}

// GetSchedulerRunTimeout returns how long one auto-post run may take
func (c *Config) GetSchedulerRunTimeout() time.Duration {
	return mustDuration(c.Scheduler.RunTimeout)
}

// GetSchedulerLocation returns the zone cron specs are evaluated in
func (c *Config) GetSchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mustDuration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
