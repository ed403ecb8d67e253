// Package config loads process configuration from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	PolicyAdvisory = "advisory"
	PolicyEnforce  = "enforce"
)

type Config struct {
	Port      string `env:"PORT,       default=3000"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	APIPrefix string `env:"API_PREFIX, default=/api"`
	WSPath    string `env:"WS_PATH,    default=/ws"`
	Timezone  string `env:"TIMEZONE,   default=America/Sao_Paulo"`

	MasterEmails []string `env:"MASTER_EMAILS, default=admin@agenda.local"`
	AccessPolicy string   `env:"ACCESS_POLICY, default=advisory"`
	StoreDriver  string   `env:"STORE_DRIVER,  default=sqlite"`

	SQLite   SQLiteConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	WS       WSConfig
	WhatsApp WhatsAppConfig
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=database.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=agenda"`
}

// RedisConfig enables the cross-process relay when Addr is set.
type RedisConfig struct {
	Addr    string `env:"REDIS_ADDR"`
	DB      int    `env:"REDIS_DB,      default=0"`
	Channel string `env:"REDIS_CHANNEL, default=agenda:events"`
}

type WSConfig struct {
	SendBuffer   int           `env:"WS_SEND_BUFFER,   default=16"`
	WriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT, default=5s"`
	PingInterval time.Duration `env:"WS_PING_INTERVAL, default=30s"`
}

type WhatsAppConfig struct {
	CountryCode    string `env:"WHATSAPP_COUNTRY_CODE, default=55"`
	DefaultMessage string `env:"WHATSAPP_DEFAULT_MESSAGE"`
}

// Load reads .env if present, then the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the process cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.AccessPolicy {
	case PolicyAdvisory, PolicyEnforce:
	default:
		return fmt.Errorf("config: unknown ACCESS_POLICY %q", c.AccessPolicy)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("config: WS_PATH must start with '/'")
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("config: API_PREFIX must start with '/'")
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsProduction reports whether logs should be emitted as plain JSON.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
