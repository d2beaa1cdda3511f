// Package config provides CLI configuration management for the revload command-line tool.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %v, want 500", cfg.ChunkSize)
	}
	if cfg.Source != "Google Play Store" {
		t.Errorf("Source = %v, want Google Play Store", cfg.Source)
	}
	if cfg.OutputFormat != DefaultOutputFormat {
		t.Errorf("OutputFormat = %v, want %v", cfg.OutputFormat, DefaultOutputFormat)
	}
	if cfg.Debug {
		t.Error("Debug should be false by default")
	}
	if cfg.Redis != nil {
		t.Error("Redis should be nil by default")
	}
}

// TestOutputFormat_IsValid verifies output format validation.
func TestOutputFormat_IsValid(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{OutputFormatText, true},
		{OutputFormatJSON, true},
		{OutputFormatYAML, true},
		{"invalid", false},
		{"", false},
		{"JSON", false}, // Case sensitive
	}

	for _, tc := range tests {
		if got := tc.format.IsValid(); got != tc.valid {
			t.Errorf("OutputFormat(%q).IsValid() = %v, want %v", tc.format, got, tc.valid)
		}
	}
}

// TestConfigDir verifies the config directory resolution.
func TestConfigDir(t *testing.T) {
	t.Setenv("REVLOAD_CONFIG_DIR", "/tmp/revload-test")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir failed: %v", err)
	}
	if dir != "/tmp/revload-test" {
		t.Errorf("ConfigDir = %v, want /tmp/revload-test", dir)
	}
}

// TestLoadConfigFromFile verifies YAML file loading and overlay precedence.
func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REVLOAD_CONFIG_DIR", dir)

	content := []byte(`
chunk_size: 100
source: App Store
output_format: json
database:
  host: db.internal
  port: 5433
  database: reviews
redis:
  host: cache.internal
`)
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), content, 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ChunkSize != 100 {
		t.Errorf("ChunkSize = %v, want 100", cfg.ChunkSize)
	}
	if cfg.Source != "App Store" {
		t.Errorf("Source = %v, want App Store", cfg.Source)
	}
	if cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("OutputFormat = %v, want json", cfg.OutputFormat)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %v, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Port != 5433 {
		t.Errorf("Database.Port = %v, want 5433", cfg.Database.Port)
	}
	if !cfg.Redis.IsConfigured() {
		t.Error("Redis should be configured")
	}
}

// TestLoadConfigEnvOverridesFile verifies env vars win over the file.
func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REVLOAD_CONFIG_DIR", dir)

	content := []byte("chunk_size: 100\n")
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), content, 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("REVLOAD_CHUNK_SIZE", "250")
	t.Setenv("REVLOAD_SOURCE", "Huawei AppGallery")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ChunkSize != 250 {
		t.Errorf("ChunkSize = %v, want 250", cfg.ChunkSize)
	}
	if cfg.Source != "Huawei AppGallery" {
		t.Errorf("Source = %v, want Huawei AppGallery", cfg.Source)
	}
}

// TestLoadConfigMissingFile verifies defaults apply without a config file.
func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("REVLOAD_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %v, want default 500", cfg.ChunkSize)
	}
}

// TestValidate verifies configuration validation rules.
func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg.ChunkSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero chunk_size should fail validation")
	}

	cfg = DefaultConfig()
	cfg.OutputFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("invalid output format should fail validation")
	}
}

// TestDBConfigOverlay verifies the config file overlays env/defaults.
func TestDBConfigOverlay(t *testing.T) {
	t.Setenv("REVLOAD_DB_HOST", "env-host")

	cfg := DefaultConfig()
	cfg.Database.Host = "file-host"
	cfg.Database.Database = "reviews"

	dbCfg := cfg.DBConfig()
	if dbCfg.Host != "file-host" {
		t.Errorf("Host = %v, want file-host (file wins over env)", dbCfg.Host)
	}
	if dbCfg.Database != "reviews" {
		t.Errorf("Database = %v, want reviews", dbCfg.Database)
	}
}

// TestSaveAndReload verifies round-tripping the config to disk.
func TestSaveAndReload(t *testing.T) {
	t.Setenv("REVLOAD_CONFIG_DIR", t.TempDir())

	cfg := DefaultConfig()
	cfg.ChunkSize = 123
	cfg.Database.Host = "saved-host"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.ChunkSize != 123 {
		t.Errorf("ChunkSize = %v, want 123", loaded.ChunkSize)
	}
	if loaded.Database.Host != "saved-host" {
		t.Errorf("Database.Host = %v, want saved-host", loaded.Database.Host)
	}
}
