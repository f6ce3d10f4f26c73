package command

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/goliatone/go-undo/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Storage:  config.StorageConfig{Driver: config.DriverMemory, Key: "cardLibrary"},
		Log:      config.LogConfig{Level: "debug", Format: "text"},
		Squash:   config.SquashConfig{Engine: config.EngineBuiltin},
		Metrics:  config.MetricsConfig{Addr: "127.0.0.1:0", Namespace: "cardhist"},
		Activity: config.ActivityConfig{Channel: "cards"},
	}
}

func openTestRuntime(t *testing.T, cfg config.Config) (*Runtime, *bytes.Buffer) {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt, err := Open(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt, logs
}

func execute(t *testing.T, s *Session, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := s.Execute(context.Background(), line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}
}
