// Package logging builds the slog logger used by cardhist and bridges it to
// the logger interfaces of the library packages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	undo "github.com/goliatone/go-undo"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is json or text.
	Format string
	// AddSource adds source file information to records.
	AddSource bool
}

// DefaultConfig returns the logger configuration used when none is given.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text"}
}

// New creates a logger writing to w. A nil w writes to stderr.
func New(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text", "console":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", level)
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// HistoryLogger adapts logger to undo.Logger. Successful operations log at
// debug. Absorbed reaction and hook failures log at warn, rule failures at
// error since they silently disable squashing.
func HistoryLogger(logger *slog.Logger) undo.Logger {
	if logger == nil {
		logger = Discard()
	}
	return undo.LoggerFunc(func(event undo.HistoryLogEvent) {
		attrs := []any{
			"op", event.Op,
			"label", event.Label,
			"cursor", event.Cursor,
			"length", event.Length,
		}
		if event.EntryID != "" {
			attrs = append(attrs, "entry_id", event.EntryID)
		}
		if event.Squashed {
			attrs = append(attrs, "squashed", true)
		}
		if event.Truncated > 0 {
			attrs = append(attrs, "truncated", event.Truncated)
		}
		if event.Reaction != "" {
			attrs = append(attrs, "reaction", event.Reaction)
		}

		switch {
		case event.Err != nil && event.Op == undo.OpRule:
			logger.Error("history: squash rule failed", append(attrs, "error", event.Err)...)
		case event.Err != nil:
			logger.Warn("history: "+event.Op+" failed", append(attrs, "error", event.Err)...)
		case event.Op == undo.OpUnbound:
			logger.Warn("history: navigation without a bound store", attrs...)
		default:
			logger.Debug("history: "+event.Op, attrs...)
		}
	})
}
