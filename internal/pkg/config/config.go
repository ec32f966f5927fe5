package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Local storage drivers.
const (
	LocalFile  = "file"
	LocalBolt  = "bolt"
	LocalRedis = "redis"
)

type Config struct {
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	HTTPAddr  string `env:"HTTP_ADDR,  default=127.0.0.1:8080"`

	Auth      AuthConfig
	Local     LocalConfig
	Remote    RemoteConfig
	Assistant AssistantConfig
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET,          default=altracrm-dev-secret"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,           default=24h"`
	HashPasswords bool          `env:"AUTH_HASH_PASSWORDS, default=false"`
}

type LocalConfig struct {
	Driver    string `env:"LOCAL_DRIVER, default=file"`
	Path      string `env:"LOCAL_PATH,   default=./data"`
	RedisAddr string `env:"REDIS_ADDR,   default=localhost:6379"`
	RedisDB   int    `env:"REDIS_DB,     default=0"`
}

type AssistantConfig struct {
	APIKey   string `env:"GEMINI_API_KEY"`
	Model    string `env:"GEMINI_MODEL,       default=gemini-2.5-flash"`
	Language string `env:"ASSISTANT_LANGUAGE, default=es"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom resolves the configuration through l.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for entry points that cannot continue without config.
func MustLoad(ctx context.Context) *Config {
	cfg, err := Load(ctx)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) validate() error {
	switch c.Local.Driver {
	case LocalFile, LocalBolt, LocalRedis:
	default:
		return fmt.Errorf("unknown LOCAL_DRIVER %q", c.Local.Driver)
	}
	switch c.Assistant.Language {
	case "es", "en":
	default:
		return fmt.Errorf("unknown ASSISTANT_LANGUAGE %q", c.Assistant.Language)
	}
	if c.Remote.Driver != "" && !knownDriver(c.Remote.Driver) {
		return fmt.Errorf("unknown REMOTE_DRIVER %q", c.Remote.Driver)
	}
	return nil
}
