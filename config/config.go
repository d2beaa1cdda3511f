// Package config provides CLI configuration management for the revload
// command-line tool. It supports loading configuration from YAML files,
// environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fintech-reviews/revload/pkg/db"
	"github.com/fintech-reviews/revload/pkg/ingest/batch"
	"github.com/fintech-reviews/revload/pkg/ingest/normalize"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".revload"
	DefaultConfigFile   = "config.yaml"
)

// DatabaseConfig holds PostgreSQL connection settings from the config file.
// Fields left empty fall back to REVLOAD_DB_* environment variables, then
// to built-in defaults.
type DatabaseConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// RedisConfig holds optional Redis settings for event publishing.
type RedisConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// IsConfigured reports whether event publishing is enabled.
func (c *RedisConfig) IsConfigured() bool {
	return c != nil && c.Host != ""
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// ChunkSize is the number of records per bulk upsert statement.
	ChunkSize int `yaml:"chunk_size,omitempty"`

	// Source labels records whose input carries no source column.
	Source string `yaml:"source,omitempty"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// Database holds PostgreSQL connection settings.
	Database DatabaseConfig `yaml:"database,omitempty"`

	// Redis holds optional event publishing settings.
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		ChunkSize:    batch.DefaultChunkSize,
		Source:       normalize.DefaultSource,
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $REVLOAD_CONFIG_DIR if set, otherwise ~/.revload
func ConfigDir() (string, error) {
	if dir := os.Getenv("REVLOAD_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.revload/config.yaml or $REVLOAD_CONFIG_DIR/config.yaml)
// 3. Environment variables (REVLOAD_CHUNK_SIZE, REVLOAD_SOURCE, ...)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg CLIConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.ChunkSize != 0 {
		cfg.ChunkSize = fileCfg.ChunkSize
	}
	if fileCfg.Source != "" {
		cfg.Source = fileCfg.Source
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.Database.Host != "" {
		cfg.Database.Host = fileCfg.Database.Host
	}
	if fileCfg.Database.Port != 0 {
		cfg.Database.Port = fileCfg.Database.Port
	}
	if fileCfg.Database.Database != "" {
		cfg.Database.Database = fileCfg.Database.Database
	}
	if fileCfg.Database.User != "" {
		cfg.Database.User = fileCfg.Database.User
	}
	if fileCfg.Database.SSLMode != "" {
		cfg.Database.SSLMode = fileCfg.Database.SSLMode
	}
	if fileCfg.Redis != nil {
		cfg.Redis = fileCfg.Redis
	}
	cfg.Debug = fileCfg.Debug

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("REVLOAD_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChunkSize = n
		}
	}

	if v := os.Getenv("REVLOAD_SOURCE"); v != "" {
		cfg.Source = v
	}

	if v := os.Getenv("REVLOAD_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("REVLOAD_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	loadRedisFromEnv(cfg)
}

// loadRedisFromEnv overlays Redis environment variables.
func loadRedisFromEnv(cfg *CLIConfig) {
	host := os.Getenv("REVLOAD_REDIS_HOST")
	if host == "" {
		return
	}

	if cfg.Redis == nil {
		cfg.Redis = &RedisConfig{}
	}
	cfg.Redis.Host = host

	if v := os.Getenv("REVLOAD_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = port
		}
	}
	if v := os.Getenv("REVLOAD_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REVLOAD_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// DBConfig builds the pool configuration. Environment variables and
// defaults fill in anything the config file leaves out.
func (c *CLIConfig) DBConfig() *db.Config {
	dbCfg := db.ConfigFromEnv()

	if c.Database.Host != "" {
		dbCfg.Host = c.Database.Host
	}
	if c.Database.Port != 0 {
		dbCfg.Port = c.Database.Port
	}
	if c.Database.Database != "" {
		dbCfg.Database = c.Database.Database
	}
	if c.Database.User != "" {
		dbCfg.User = c.Database.User
	}
	if c.Database.SSLMode != "" {
		dbCfg.SSLMode = c.Database.SSLMode
	}

	return dbCfg
}

// RedisPort returns the configured Redis port, defaulting to 6379.
func (c *RedisConfig) RedisPort() int {
	if c == nil || c.Port == 0 {
		return 6379
	}
	return c.Port
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}
