package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/codetime/config.yaml"

// EnvPrefix marks environment overrides: CODETIME_DAEMON_PORT sets daemon.port.
const EnvPrefix = "CODETIME_"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config holds all codetime configuration.
type Config struct {
	Storage     StorageConfig     `yaml:"storage" koanf:"storage"`
	Daemon      DaemonConfig      `yaml:"daemon" koanf:"daemon"`
	Logging     LoggingConfig     `yaml:"logging" koanf:"logging"`
	Aggregation AggregationConfig `yaml:"aggregation" koanf:"aggregation"`
}

type StorageConfig struct {
	Path              string `yaml:"path" koanf:"path"`
	Backend           string `yaml:"backend" koanf:"backend"`
	SQLiteFile        string `yaml:"sqlite_file" koanf:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode" koanf:"sqlite_journal_mode"`
	BusyTimeoutMS     int    `yaml:"busy_timeout_ms" koanf:"busy_timeout_ms"`
	BadgerDir         string `yaml:"badger_dir" koanf:"badger_dir"`
}

type DaemonConfig struct {
	Host                   string   `yaml:"host" koanf:"host"`
	Port                   int      `yaml:"port" koanf:"port"`
	MaxRequestSize         int64    `yaml:"max_request_size" koanf:"max_request_size"`
	RateLimitRequests      int      `yaml:"rate_limit_requests" koanf:"rate_limit_requests"`
	RateLimitWindowSeconds int      `yaml:"rate_limit_window_seconds" koanf:"rate_limit_window_seconds"`
	CORSOrigins            []string `yaml:"cors_origins" koanf:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds" koanf:"shutdown_timeout_seconds"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" koanf:"level"`
	Format     string `yaml:"format" koanf:"format"`
	File       string `yaml:"file" koanf:"file"`
	MaxSize    int    `yaml:"max_size" koanf:"max_size"`
	MaxBackups int    `yaml:"max_backups" koanf:"max_backups"`
}

type AggregationConfig struct {
	// Timezone is the IANA zone that decides day boundaries and hour buckets.
	Timezone       string   `yaml:"timezone" koanf:"timezone"`
	RejectedValues []string `yaml:"rejected_values" koanf:"rejected_values"`
}

// sliceConfigPaths lists keys that may arrive as comma-separated env values.
var sliceConfigPaths = []string{
	"daemon.cors_origins",
	"aggregation.rejected_values",
}

// Load layers defaults, the YAML file at path (skipped when path is empty)
// and CODETIME_ environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps CODETIME_SECTION_KEY to section.key.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// processSliceFields splits comma-separated string values of slice keys.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := []string{}
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("setting %s: %w", path, err)
		}
	}
	return nil
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendSQLite, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be %q or %q, got %q", BackendSQLite, BackendBadger, c.Storage.Backend))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	if c.Daemon.Port < 1 || c.Daemon.Port > 65535 {
		errs = append(errs, fmt.Errorf("daemon.port must be between 1 and 65535, got %d", c.Daemon.Port))
	}
	if c.Daemon.MaxRequestSize <= 0 {
		errs = append(errs, errors.New("daemon.max_request_size must be positive"))
	}
	if c.Daemon.RateLimitRequests < 0 || c.Daemon.RateLimitWindowSeconds < 0 {
		errs = append(errs, errors.New("daemon rate limit settings must not be negative"))
	}
	if _, err := time.LoadLocation(c.Aggregation.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("aggregation.timezone: %w", err))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Location resolves Aggregation.Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Aggregation.Timezone)
}

// StorageDir returns the expanded storage directory.
func (c *Config) StorageDir() (string, error) {
	return expandPath(c.Storage.Path)
}

// DBPath returns the SQLite database file path.
func (c *Config) DBPath() (string, error) {
	dir, err := c.StorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// BadgerPath returns the Badger data directory.
func (c *Config) BadgerPath() (string, error) {
	dir, err := c.StorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.BadgerDir), nil
}

// LogFilePath returns the log file path, relative names resolving under the
// storage directory, or "" when logging goes to stderr.
func (c *Config) LogFilePath() (string, error) {
	if c.Logging.File == "" {
		return "", nil
	}
	p, err := expandPath(c.Logging.File)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	dir, err := c.StorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, p), nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yamlv3.Marshal(DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	}

	return Load(path)
}
