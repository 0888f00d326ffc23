// Package config loads the service configuration from a YAML file with
// sane defaults and a small set of environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Store   StoreConfig   `yaml:"store"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DataConfig points at the algorithm files.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// StoreConfig selects the case persistence backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"` // memory|file|redis
	Path    string      `yaml:"path"`    // file backend
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds redis backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"` // Go duration string, e.g. "12h"; empty means no expiry
}

// TTLDuration parses the TTL field. Empty means no expiry.
func (r RedisConfig) TTLDuration() (time.Duration, error) {
	if r.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid redis ttl %q: %w", r.TTL, err)
	}
	return d, nil
}

// ExportConfig configures the transcript exporters.
type ExportConfig struct {
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Server.Address = ":8080"
	cfg.Data.Dir = "data/algorithms"
	cfg.Store.Backend = "memory"
	cfg.Store.Path = ".icuflow/cases"
	cfg.Store.Redis.Addr = "localhost:6379"
	cfg.Export.Dir = ".icuflow/exports"
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads the config file at path, merged over defaults. A missing
// file is not an error (defaults apply); a present-but-invalid file is.
// Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	if _, err := cfg.Store.Redis.TTLDuration(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ICUFLOW_ADDR"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("ICUFLOW_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("ICUFLOW_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
}

func validate(cfg Config) error {
	switch cfg.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file or redis)", cfg.Store.Backend)
	}
	return nil
}
