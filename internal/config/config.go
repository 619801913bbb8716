package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"golang.org/x/text/currency"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/database"
)

// Cart store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Cart persistence backend: memory, redis, file or postgres.
	Store string `env:"CART_STORE" envDefault:"redis"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Idle expiry in hours for redis carts. Reads slide the expiry forward.
	// Zero keeps carts until they are cleared.
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"0"`

	// File store
	CartFilePath string `env:"CART_FILE_PATH" envDefault:"data/carts.json"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"restoh"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"restoh_secret"`
	PostgresDB   string `env:"CART_DB_NAME" envDefault:"cart_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Queries slower than this are logged at Warn. Zero disables.
	SlowQueryThresholdMs int `env:"DB_SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Menu service
	MenuServiceURL      string        `env:"MENU_SERVICE_URL" envDefault:"http://localhost:8001"`
	MenuRefreshInterval time.Duration `env:"MENU_REFRESH_INTERVAL" envDefault:"1m"`

	// ISO 4217 code prices are expressed in.
	Currency string `env:"CURRENCY" envDefault:"EUR"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	switch c.Store {
	case StoreMemory, StoreRedis:
	case StoreFile:
		if c.CartFilePath == "" {
			return fmt.Errorf("CART_FILE_PATH is required for the file store")
		}
	case StorePostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	default:
		return fmt.Errorf("CART_STORE must be one of memory, redis, file, postgres, got %q", c.Store)
	}

	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative, got %d", c.CartTTL)
	}
	if c.MenuServiceURL == "" {
		return fmt.Errorf("MENU_SERVICE_URL is required")
	}
	if c.MenuRefreshInterval <= 0 {
		return fmt.Errorf("MENU_REFRESH_INTERVAL must be positive, got %s", c.MenuRefreshInterval)
	}

	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return fmt.Errorf("CURRENCY must be an ISO 4217 code: %w", err)
	}
	c.Currency = unit.String()

	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// CartTTLDuration returns the redis cart expiry.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// RedisConfig returns the connection settings for the redis store.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// PostgresConfig returns the pool settings for the postgres store.
func (c *Config) PostgresConfig() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}
