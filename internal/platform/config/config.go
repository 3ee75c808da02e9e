package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "COURSEHUB_"

// Store backends for durable session state.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Client captures everything the CLI needs to reach the backend and keep a session.
type Client struct {
	BaseURL       string        `env:"BASE_URL" envDefault:"http://localhost:8000"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"10s"`
	LoginForm     bool          `env:"LOGIN_FORM" envDefault:"false"`
	RefreshLeeway time.Duration `env:"REFRESH_LEEWAY" envDefault:"2m"`
	MetricsAddr   string        `env:"METRICS_ADDR"`

	Store    string `env:"STORE" envDefault:"file"`
	StateDir string `env:"STATE_DIR"`

	Redis    RedisConfig
	Postgres PostgresConfig
	Log      LogConfig
}

// RedisConfig configures the redis session store.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" envDefault:"coursehub:session:"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"4"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"0"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"3s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"2s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"2s"`
}

// PostgresConfig configures the postgres session store.
type PostgresConfig struct {
	DSN       string `env:"POSTGRES_DSN"`
	Namespace string `env:"POSTGRES_NAMESPACE" envDefault:"default"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"warn"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Stub captures the development backend's settings.
type Stub struct {
	Addr       string        `env:"STUB_ADDR" envDefault:":8000"`
	JWTKey     string        `env:"STUB_JWT_KEY" envDefault:"dev-secret-key-change-in-production"`
	TokenTTL   time.Duration `env:"STUB_TOKEN_TTL" envDefault:"30m"`
	Issuer     string        `env:"STUB_ISSUER" envDefault:"coursehub-stub"`
	BcryptCost int           `env:"STUB_BCRYPT_COST" envDefault:"10"`
	MetricsOff bool          `env:"STUB_METRICS_OFF" envDefault:"false"`

	// Redis backs the token revocation list when its URL is set.
	Redis RedisConfig
	Log   LogConfig
}

// Load reads an optional .env file, then parses COURSEHUB_* variables into a Client config.
func Load() (Client, error) {
	loadDotEnv()

	var cfg Client
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Client{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// LoadStub reads the stub backend configuration.
func LoadStub() (Stub, error) {
	loadDotEnv()

	var cfg Stub
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Stub{}, fmt.Errorf("parse stub config: %w", err)
	}
	if cfg.JWTKey == "" {
		return Stub{}, errors.New("stub JWT key is required")
	}
	if cfg.TokenTTL <= 0 {
		return Stub{}, errors.New("stub token TTL must be positive")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Stub{}, fmt.Errorf("stub bcrypt cost %d out of range", cfg.BcryptCost)
	}
	return cfg, nil
}

// Validate checks cross-field constraints after flags and env are merged.
func (c *Client) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	switch c.Store {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			return errors.New("redis store selected but REDIS_URL is empty")
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres store selected but POSTGRES_DSN is empty")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	return nil
}

// ResolveStateDir returns the directory holding the file store, defaulting to
// <user config dir>/coursehub.
func (c Client) ResolveStateDir() (string, error) {
	if c.StateDir != "" {
		return c.StateDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "coursehub"), nil
}

func loadDotEnv() {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()
}
