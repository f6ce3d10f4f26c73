// Package config loads cardhist configuration.
//
// Sources are merged with koanf in increasing priority: built-in defaults,
// an optional YAML file, CARDHIST_ environment variables, then explicit
// overrides (usually command line flags).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/goliatone/go-undo/internal/logging"
	"github.com/goliatone/go-undo/pkg/persist"
)

// DefaultEnvPrefix is the environment variable prefix.
const DefaultEnvPrefix = "CARDHIST_"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Squash rule engines.
const (
	EngineBuiltin = "builtin"
	EngineExpr    = "expr"
	EngineCEL     = "cel"
	EngineJS      = "js"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full cardhist configuration.
type Config struct {
	Storage  StorageConfig  `koanf:"storage"`
	Log      LogConfig      `koanf:"log"`
	Squash   SquashConfig   `koanf:"squash"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Activity ActivityConfig `koanf:"activity"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `koanf:"driver"`
	// Path is a directory for file and badger, a database file for sqlite.
	Path string `koanf:"path"`
	Key  string `koanf:"key"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SquashConfig picks the rule deciding which recordings collapse.
type SquashConfig struct {
	Engine     string `koanf:"engine"`
	Expression string `koanf:"expression"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Addr      string `koanf:"addr"`
	Namespace string `koanf:"namespace"`
}

// ActivityConfig controls activity events raised by the session.
type ActivityConfig struct {
	Enabled bool   `koanf:"enabled"`
	Channel string `koanf:"channel"`
	ActorID string `koanf:"actor"`
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// Defaults returns the built-in defaults as a koanf-compatible map.
func Defaults() map[string]any {
	return map[string]any{
		"storage": map[string]any{
			"driver": DriverMemory,
			"path":   "",
			"key":    persist.DefaultKey,
		},
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"squash": map[string]any{
			"engine":     EngineBuiltin,
			"expression": "",
		},
		"metrics": map[string]any{
			"enabled":   false,
			"addr":      "127.0.0.1:9464",
			"namespace": "cardhist",
		},
		"activity": map[string]any{
			"enabled": false,
			"channel": "cards",
			"actor":   "",
		},
	}
}

// Loader merges configuration sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file to read. An empty path skips the file.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets values applied after every other source. Keys use dots
// for nesting, e.g. "storage.driver".
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load merges every source, validates the result and returns it.
func (l *Loader) Load() (Config, error) {
	if err := l.k.Load(mapProvider(Defaults()), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", l.filePath, err)
		}
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}
	for key, value := range l.overrides {
		if err := l.k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("config: override %s: %w", key, err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps CARDHIST_STORAGE_DRIVER to storage.driver.
func (l *Loader) envKey(name string) string {
	name = strings.TrimPrefix(name, l.envPrefix)
	return strings.ReplaceAll(strings.ToLower(name), "_", ".")
}

// YAML renders the merged configuration.
func (l *Loader) YAML() ([]byte, error) {
	return l.k.Marshal(yaml.Parser())
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Storage.Path = strings.TrimSpace(c.Storage.Path)
	c.Storage.Key = strings.TrimSpace(c.Storage.Key)
	c.Squash.Engine = strings.ToLower(strings.TrimSpace(c.Squash.Engine))
	c.Squash.Expression = strings.TrimSpace(c.Squash.Expression)
	if c.Squash.Engine == "" {
		c.Squash.Engine = EngineBuiltin
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile, DriverBadger, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for driver %q", ErrInvalid, c.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalid, c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("%w: storage.key is required", ErrInvalid)
	}

	switch c.Squash.Engine {
	case EngineBuiltin:
	case EngineExpr, EngineCEL, EngineJS:
		if c.Squash.Expression == "" {
			return fmt.Errorf("%w: squash.expression is required for engine %q", ErrInvalid, c.Squash.Engine)
		}
	default:
		return fmt.Errorf("%w: unknown squash.engine %q", ErrInvalid, c.Squash.Engine)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalid, c.Log.Format)
	}

	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics are enabled", ErrInvalid)
	}
	return nil
}
