// Package command provides the cardhist command definitions.
//
// It uses urfave/cli/v2 for parsing. Settings come from internal/config;
// flags given on the command line override file and environment values.
package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/goliatone/go-undo/internal/config"
	"github.com/goliatone/go-undo/internal/logging"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "cardhist",
		Usage:   "Card library workspace with undo/redo history and autosave",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SessionCommand(),
			LibraryCommand(),
			ConfigCommand(),
		},
	}
}

// flagKeys maps global flags onto configuration keys.
var flagKeys = map[string]string{
	"driver":        "storage.driver",
	"path":          "storage.path",
	"key":           "storage.key",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"squash-engine": "squash.engine",
	"squash-expr":   "squash.expression",
	"metrics-addr":  "metrics.addr",
	"activity":      "activity.enabled",
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"CARDHIST_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "driver",
			Usage: "Storage driver: memory, file, badger, sqlite",
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "Storage location (directory for file/badger, database file for sqlite)",
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "Storage key holding the library",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:  "squash-engine",
			Usage: "Squash rule engine: builtin, expr, cel, js",
		},
		&cli.StringFlag{
			Name:  "squash-expr",
			Usage: "Squash rule expression (label, previous, cursor, length)",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address",
		},
		&cli.BoolFlag{
			Name:  "activity",
			Usage: "Log activity events for history moves",
		},
	}
}

// loadConfig merges defaults, the config file, environment and flags.
func loadConfig(c *cli.Context) (config.Config, *config.Loader, error) {
	overrides := map[string]any{}
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		if flag == "activity" {
			overrides[key] = c.Bool(flag)
			continue
		}
		overrides[key] = c.String(flag)
	}
	if c.IsSet("metrics-addr") {
		overrides["metrics.enabled"] = true
	}

	loader := config.NewLoader(
		config.WithConfigFile(c.String("config")),
		config.WithOverrides(overrides),
	)
	cfg, err := loader.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, loader, nil
}

func newLogger(c *cli.Context, cfg config.Config) (*slog.Logger, error) {
	w := c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	return logging.New(cfg.Logging(), w)
}
