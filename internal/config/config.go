package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	defaultSQLiteDSN = "minishop.db"
)

type Config struct {
	ServiceName     string        `mapstructure:"SERVICE_NAME"`
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFile         string        `mapstructure:"LOG_FILE"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	StorageDriver   string        `mapstructure:"STORAGE_DRIVER"`
	DatabaseDSN     string        `mapstructure:"DATABASE_DSN"`
	SeedCatalog     bool          `mapstructure:"SEED_CATALOG"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	// ReservationTTL of zero disables the reaper.
	ReservationTTL      time.Duration `mapstructure:"RESERVATION_TTL"`
	ReaperInterval      time.Duration `mapstructure:"REAPER_INTERVAL"`
	FulfillmentInterval time.Duration `mapstructure:"FULFILLMENT_INTERVAL"`
	// LowStockThreshold below zero disables low stock alerts.
	LowStockThreshold int `mapstructure:"LOW_STOCK_THRESHOLD"`

	NotifyMaxAttempts     int           `mapstructure:"NOTIFY_MAX_ATTEMPTS"`
	NotifyBackoff         time.Duration `mapstructure:"NOTIFY_BACKOFF"`
	NotifyBreakerFailures uint32        `mapstructure:"NOTIFY_BREAKER_FAILURES"`
	NotifyBreakerTimeout  time.Duration `mapstructure:"NOTIFY_BREAKER_TIMEOUT"`

	BusQueueSize   int `mapstructure:"BUS_QUEUE_SIZE"`
	BusConcurrency int `mapstructure:"BUS_CONCURRENCY"`

	RabbitMQURL      string `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange string `mapstructure:"RABBITMQ_EXCHANGE"`
	RabbitMQPoolSize int    `mapstructure:"RABBITMQ_POOL_SIZE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "minishop")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("SEED_CATALOG", true)
	v.SetDefault("CATALOG_CACHE_TTL", "30s")

	v.SetDefault("RESERVATION_TTL", "72h")
	v.SetDefault("REAPER_INTERVAL", "1m")
	v.SetDefault("FULFILLMENT_INTERVAL", "0s")
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)

	v.SetDefault("NOTIFY_MAX_ATTEMPTS", 3)
	v.SetDefault("NOTIFY_BACKOFF", "5s")
	v.SetDefault("NOTIFY_BREAKER_FAILURES", 5)
	v.SetDefault("NOTIFY_BREAKER_TIMEOUT", "30s")

	v.SetDefault("BUS_QUEUE_SIZE", 1024)
	v.SetDefault("BUS_CONCURRENCY", 8)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "minishop.events")
	v.SetDefault("RABBITMQ_POOL_SIZE", 4)
}

// Load reads app.env from path when present. Environment variables override the file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read app.env: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case StorageMemory:
	case StorageSQLite:
		if c.DatabaseDSN == "" {
			c.DatabaseDSN = defaultSQLiteDSN
		}
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("config: DATABASE_DSN is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: SHUTDOWN_TIMEOUT must be positive")
	}
	if c.ReservationTTL > 0 && c.ReaperInterval <= 0 {
		return errors.New("config: REAPER_INTERVAL must be positive while the reaper is enabled")
	}
	if c.NotifyMaxAttempts <= 0 {
		return errors.New("config: NOTIFY_MAX_ATTEMPTS must be positive")
	}
	return nil
}
