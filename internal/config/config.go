package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Storage  StorageConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Session  SessionConfig
	Log      LogConfig
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"ecommerce"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"4"`
	Migrate  bool   `env:"DB_MIGRATE" envDefault:"true"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig configures the product cache. An empty Addr disables it.
type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR" envDefault:""`
	Password   string        `env:"REDIS_PASSWORD" envDefault:""`
	DB         int           `env:"REDIS_DB" envDefault:"0"`
	ProductTTL time.Duration `env:"REDIS_PRODUCT_TTL" envDefault:"60s"`
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// RabbitMQConfig configures event publishing. An empty URL disables it.
type RabbitMQConfig struct {
	URL      string `env:"RABBITMQ_URL" envDefault:""`
	Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"shop.events"`
}

func (c RabbitMQConfig) Enabled() bool { return c.URL != "" }

type SessionConfig struct {
	Secret   string        `env:"SESSION_SECRET" envDefault:"change-me-session-secret"`
	TTL      time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	HashCost int           `env:"PASSWORD_HASH_COST" envDefault:"10"`
}

type LogConfig struct {
	Level    string   `env:"LOG_LEVEL" envDefault:"warn"`
	Encoding string   `env:"LOG_ENCODING" envDefault:"console"`
	Output   []string `env:"LOG_OUTPUT" envDefault:"stderr" envSeparator:","`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	switch c.Log.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log encoding %q", c.Log.Encoding)
	}
	return nil
}
