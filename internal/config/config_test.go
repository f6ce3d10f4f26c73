package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader(WithEnvPrefix("CARDHIST_TEST_DEFAULTS_")).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory || cfg.Storage.Key != "cardLibrary" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Squash.Engine != EngineBuiltin {
		t.Fatalf("expected builtin engine, got %q", cfg.Squash.Engine)
	}
	if cfg.Metrics.Enabled || cfg.Metrics.Addr == "" {
		t.Fatalf("unexpected metrics defaults %+v", cfg.Metrics)
	}
	if cfg.Activity.Channel != "cards" {
		t.Fatalf("unexpected activity channel %q", cfg.Activity.Channel)
	}
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardhist.yaml")
	payload := strings.Join([]string{
		"storage:",
		"  driver: sqlite",
		"  path: ./from-file.db",
		"log:",
		"  level: debug",
		"squash:",
		"  engine: expr",
		"  expression: label == previous",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CARDHIST_STORAGE_PATH", "/tmp/from-env.db")
	t.Setenv("CARDHIST_METRICS_ENABLED", "true")

	cfg, err := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"log.level": "warn"}),
	).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Fatalf("expected driver from file, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Path != "/tmp/from-env.db" {
		t.Fatalf("expected env to override file path, got %q", cfg.Storage.Path)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("expected override to win, got %q", cfg.Log.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Fatalf("expected metrics enabled from env")
	}
	if cfg.Squash.Expression != "label == previous" {
		t.Fatalf("unexpected expression %q", cfg.Squash.Expression)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))).Load()
	if err == nil {
		t.Fatalf("expected missing file to fail")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Storage: StorageConfig{Driver: DriverMemory, Key: "cardLibrary"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Squash:  SquashConfig{Engine: EngineBuiltin},
	}
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "base", mutate: func(*Config) {}, ok: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "redis" }},
		{name: "badger without path", mutate: func(c *Config) { c.Storage.Driver = DriverBadger }},
		{name: "file with path", mutate: func(c *Config) { c.Storage.Driver = DriverFile; c.Storage.Path = "data" }, ok: true},
		{name: "blank key", mutate: func(c *Config) { c.Storage.Key = "" }},
		{name: "unknown engine", mutate: func(c *Config) { c.Squash.Engine = "lua" }},
		{name: "cel without expression", mutate: func(c *Config) { c.Squash.Engine = EngineCEL }},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "chatty" }},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }},
		{name: "metrics without addr", mutate: func(c *Config) { c.Metrics.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoaderYAML(t *testing.T) {
	loader := NewLoader(WithEnvPrefix("CARDHIST_TEST_YAML_"))
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := loader.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	if !strings.Contains(string(out), "driver: memory") {
		t.Fatalf("expected driver in yaml output:\n%s", out)
	}
}
