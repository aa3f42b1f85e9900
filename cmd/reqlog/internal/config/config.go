// Package config provides configuration management for reqlog.
// Values come from built-in defaults, an optional YAML file, a .env file and
// REQLOG_-prefixed environment variables, in increasing order of precedence.
// LOG_LEVEL and APP_ENV are honoured as well.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
)

const (
	// EnvironmentProduction switches logging to JSON output, info level and
	// no stack traces in error entries.
	EnvironmentProduction = "production"
	// EnvironmentDevelopment is the default environment.
	EnvironmentDevelopment = "development"
)

// Version is the reqlog release.
const Version = "1.2"

// Defaults contains all default configuration values.
// Level and format are left empty here and resolved from the environment.
var Defaults = struct {
	Environment string
	Server      struct {
		Port int
		Host string
	}
	Logging struct {
		Path         string
		LogBodies    bool
		MaxBodyBytes int64
	}
	Metrics struct {
		Enabled bool
		Path    string
	}
	ConfigPath string
}{
	Environment: EnvironmentDevelopment,
	Server: struct {
		Port int
		Host string
	}{
		Port: 8080,
		Host: "0.0.0.0",
	},
	Logging: struct {
		Path         string
		LogBodies    bool
		MaxBodyBytes int64
	}{
		Path:         constants.DefaultLogDirectory,
		LogBodies:    true,
		MaxBodyBytes: constants.MaxLoggedBodyBytes,
	},
	Metrics: struct {
		Enabled bool
		Path    string
	}{
		Enabled: true,
		Path:    constants.DefaultMetricsPath,
	},
	ConfigPath: constants.DefaultConfigPath,
}

// AppConfig holds the application configuration.
// It is designed to be immutable after initialization.
type AppConfig struct {
	Environment string        `mapstructure:"environment"`
	Server      ServerConfig  `mapstructure:"server"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level           string   `mapstructure:"level"`            // debug, info, warn, error
	Format          string   `mapstructure:"format"`           // console, json, simple
	Path            string   `mapstructure:"path"`             // log directory, empty for stdout only
	SkipPaths       []string `mapstructure:"skip_paths"`       // prefixes added to the built-in skip list
	SensitiveFields []string `mapstructure:"sensitive_fields"` // substrings added to the built-in denylist
	LogBodies       bool     `mapstructure:"log_bodies"`       // log sanitized POST/PUT/PATCH bodies
	MaxBodyBytes    int64    `mapstructure:"max_body_bytes"`   // largest body buffered for logging
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsProduction reports whether the service runs in production mode.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Addr returns the listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AllSkipPaths returns the built-in skip prefixes followed by the configured ones.
func (c *AppConfig) AllSkipPaths() []string {
	paths := append([]string{}, constants.SkipPaths...)
	paths = append(paths, c.Logging.SkipPaths...)
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		paths = append(paths, c.Metrics.Path)
	}
	return paths
}

// AllSensitiveFields returns the built-in denylist followed by the configured entries.
func (c *AppConfig) AllSensitiveFields() []string {
	fields := append([]string{}, constants.SensitiveFields...)
	return append(fields, c.Logging.SensitiveFields...)
}

// Load initializes and loads the application configuration.
// An explicit configPath must exist; the default path is optional.
func Load(configPath string) (*AppConfig, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("environment", Defaults.Environment)
	v.SetDefault("server.port", Defaults.Server.Port)
	v.SetDefault("server.host", Defaults.Server.Host)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.path", Defaults.Logging.Path)
	v.SetDefault("logging.skip_paths", []string{})
	v.SetDefault("logging.sensitive_fields", []string{})
	v.SetDefault("logging.log_bodies", Defaults.Logging.LogBodies)
	v.SetDefault("logging.max_body_bytes", Defaults.Logging.MaxBodyBytes)
	v.SetDefault("metrics.enabled", Defaults.Metrics.Enabled)
	v.SetDefault("metrics.path", Defaults.Metrics.Path)

	v.SetConfigType("yaml")

	path := configPath
	if path == "" {
		path = Defaults.ConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if configPath != "" {
			if os.IsNotExist(err) {
				return nil, errors.Newf("config file not found: %s", configPath)
			}
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	// Enable environment variable override
	v.SetEnvPrefix("REQLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal does not see AutomaticEnv keys without an explicit bind.
	// The unprefixed names are kept for deployments that already set them.
	v.BindEnv("environment", "REQLOG_ENVIRONMENT", "APP_ENV")
	v.BindEnv("logging.level", "REQLOG_LOGGING_LEVEL", "LOG_LEVEL")
	v.BindEnv("server.port")
	v.BindEnv("server.host")
	v.BindEnv("logging.format")
	v.BindEnv("logging.path")
	v.BindEnv("logging.skip_paths")
	v.BindEnv("logging.sensitive_fields")
	v.BindEnv("logging.log_bodies")
	v.BindEnv("logging.max_body_bytes")
	v.BindEnv("metrics.enabled")
	v.BindEnv("metrics.path")

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// validate normalizes cfg and checks its fields.
func validate(cfg *AppConfig) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.Newf("invalid server port: %d", cfg.Server.Port)
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.Environment == "" {
		cfg.Environment = Defaults.Environment
	}

	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	if cfg.Logging.Level == "" {
		if cfg.IsProduction() {
			cfg.Logging.Level = "info"
		} else {
			cfg.Logging.Level = "debug"
		}
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("invalid logging level: %s", cfg.Logging.Level)
	}

	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	if cfg.Logging.Format == "" {
		if cfg.IsProduction() {
			cfg.Logging.Format = "json"
		} else {
			cfg.Logging.Format = "console"
		}
	}
	switch cfg.Logging.Format {
	case "console", "json", "simple":
	default:
		return errors.Newf("invalid logging format: %s", cfg.Logging.Format)
	}

	if cfg.Logging.MaxBodyBytes <= 0 {
		cfg.Logging.MaxBodyBytes = Defaults.Logging.MaxBodyBytes
	}
	if cfg.Logging.MaxBodyBytes > constants.MaxLoggedBodyLimit {
		cfg.Logging.MaxBodyBytes = constants.MaxLoggedBodyLimit
	}

	for _, p := range cfg.Logging.SkipPaths {
		if !strings.HasPrefix(p, "/") {
			return errors.Newf("skip path must start with '/': %q", p)
		}
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" {
			cfg.Metrics.Path = Defaults.Metrics.Path
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			return errors.Newf("metrics path must start with '/': %q", cfg.Metrics.Path)
		}
	}

	return nil
}
