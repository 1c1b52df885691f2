// Package config loads service configuration from an optional YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	// DSN is the SQLite data source; the default keeps foreign keys on.
	DSN string `yaml:"dsn"`
}

type LoggingConfig struct {
	Format string `yaml:"format"` // "text" or "json"
	Level  string `yaml:"level"`  // debug, info, warn, error
}

type AuthConfig struct {
	// DemoVerifiers keeps the demo credential policy: any password on the
	// registry login, the shared secret on role login, the fixed OTP code.
	// Disabling it switches the registry login to argon2id verification.
	DemoVerifiers bool `yaml:"demo_verifiers"`
	// RoleSecret overrides the shared secret of the role-scoped login.
	RoleSecret string `yaml:"role_secret"`
	// OTPCode overrides the accepted one-time code.
	OTPCode string `yaml:"otp_code"`
	// LoginDelay simulates network latency on login variants.
	LoginDelay time.Duration `yaml:"login_delay"`
}

type RateLimitConfig struct {
	// Requests per window per client on the auth endpoints; zero disables limiting.
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Load reads the optional YAML file at path, then applies GOLEA_* environment
// overrides on top. Missing path means defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: "file:golea.db?_foreign_keys=on",
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Auth: AuthConfig{
			DemoVerifiers: true,
		},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	invalid := make([]string, 0, 2)

	if v := strings.TrimSpace(os.Getenv("GOLEA_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			invalid = append(invalid, "GOLEA_PORT")
		} else {
			cfg.Server.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_SQLITE_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_LOG_FORMAT")); v != "" {
		cfg.Logging.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_DEMO_VERIFIERS")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "GOLEA_DEMO_VERIFIERS")
		} else {
			cfg.Auth.DemoVerifiers = enabled
		}
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_ROLE_SECRET")); v != "" {
		cfg.Auth.RoleSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_OTP_CODE")); v != "" {
		cfg.Auth.OTPCode = v
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_LOGIN_DELAY")); v != "" {
		delay, err := time.ParseDuration(v)
		if err != nil || delay < 0 {
			invalid = append(invalid, "GOLEA_LOGIN_DELAY")
		} else {
			cfg.Auth.LoginDelay = delay
		}
	}
	if v := strings.TrimSpace(os.Getenv("GOLEA_RATE_LIMIT")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			invalid = append(invalid, "GOLEA_RATE_LIMIT")
		} else {
			cfg.RateLimit.Requests = limit
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Addr formats the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
