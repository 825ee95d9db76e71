package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Forms.AutosaveDebounce != 800*time.Millisecond {
		t.Errorf("expected 800ms autosave debounce, got %v", cfg.Forms.AutosaveDebounce)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"zero debounce", func(c *Config) { c.Forms.AutosaveDebounce = 0 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("GATEKIT_CONFIG_DIR", dir)
	defer os.Unsetenv("GATEKIT_CONFIG_DIR")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://staging.gatherkit.io"
	cfg.Storage.Backend = "sqlite"

	path := filepath.Join(dir, "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.API.BaseURL != "https://staging.gatherkit.io" {
		t.Errorf("base url not round-tripped: %q", loaded.API.BaseURL)
	}
	if loaded.Storage.Backend != "sqlite" {
		t.Errorf("backend not round-tripped: %q", loaded.Storage.Backend)
	}
	if loaded.Storage.DataDir == "" {
		t.Error("expected data dir default to be filled in")
	}
}

func TestLoadOrCreateFirstRunFillsDerivedPaths(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("GATEKIT_CONFIG_DIR", dir)
	defer os.Unsetenv("GATEKIT_CONFIG_DIR")

	cfg, err := LoadOrCreate("")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if cfg.Storage.DataDir != filepath.Join(dir, "data") {
		t.Errorf("expected data dir under config dir, got %q", cfg.Storage.DataDir)
	}
	if cfg.Logging.AuditFile != filepath.Join(dir, "audit.log") {
		t.Errorf("expected audit file under config dir, got %q", cfg.Logging.AuditFile)
	}

	// the written file is picked up on the next run with the same paths
	again, err := LoadOrCreate("")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Storage.DataDir != cfg.Storage.DataDir {
		t.Errorf("data dir changed between runs: %q vs %q", again.Storage.DataDir, cfg.Storage.DataDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("GATEKIT_CONFIG_DIR", dir)
	defer os.Unsetenv("GATEKIT_CONFIG_DIR")

	if _, err := Load(filepath.Join(dir, "nope.yaml")); err != ErrConfigNotFound {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}
