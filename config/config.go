package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var ErrMissingSecret = errors.New("jwt secret is not configured")

type Config struct {
	Port     int      `yaml:"port"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	Redis    Redis    `yaml:"redis"`
	Log      Log      `yaml:"log"`
}

type Database struct {
	// Driver is either "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// Redis backs the task queue. An empty Addr disables it.
type Redis struct {
	Addr string `yaml:"addr"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Port: 8080,
		Database: Database{
			Driver: "sqlite",
			DSN:    "mlboard.db",
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the yaml file at path (if any) over the defaults, then applies
// MLBOARD_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MLBOARD_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("MLBOARD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MLBOARD_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("MLBOARD_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("MLBOARD_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MLBOARD_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("MLBOARD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("MLBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MLBOARD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
