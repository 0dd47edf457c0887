// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "MONOVOICE_"

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds every setting the binary reads from the environment.
type Config struct {
	Store      string `env:"STORE" envDefault:"file"`
	SaveDir    string `env:"SAVE_DIR"` // default: ~/.monovoice/saves
	SQLitePath string `env:"SQLITE_PATH" envDefault:"monovoice.db"`
	RedisURL   string `env:"REDIS_URL" envDefault:"localhost:6379"`

	PGAddr     string `env:"PG_ADDR" envDefault:"localhost:5432"`
	PGUser     string `env:"PG_USER" envDefault:"postgres"`
	PGPassword string `env:"PG_PASSWORD"`
	PGDatabase string `env:"PG_DATABASE" envDefault:"monovoice"`

	SessionKey string `env:"SESSION_KEY" envDefault:"monopolyGameState"`
	BoardFile  string `env:"BOARD_FILE"`

	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables that are already set, then parses Config. An empty
// envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return Parse()
}

// Parse reads Config from the environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and blank required settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreSQLite, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("%sSTORE: unknown store %q (want memory, file, sqlite, redis or postgres)", Prefix, c.Store)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%sLOG_FORMAT: unknown format %q (want text or json)", Prefix, c.LogFormat)
	}
	if strings.TrimSpace(c.SessionKey) == "" {
		return fmt.Errorf("%sSESSION_KEY must not be empty", Prefix)
	}
	return nil
}
