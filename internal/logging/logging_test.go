package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	undo "github.com/goliatone/go-undo"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible", "key", "value")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %q", buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["msg"] != "visible" || record["key"] != "value" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestHistoryLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	history := HistoryLogger(logger)

	history.LogHistory(undo.HistoryLogEvent{Op: undo.OpRecord, Label: "cardLibrary/push", EntryID: "e1", Cursor: 1, Length: 2, Truncated: 1})
	history.LogHistory(undo.HistoryLogEvent{Op: undo.OpReaction, Reaction: "card_library", Err: errors.New("disk full")})
	history.LogHistory(undo.HistoryLogEvent{Op: undo.OpRule, Err: errors.New("bad rule")})

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=\"history: record\"",
		"entry_id=e1",
		"truncated=1",
		"level=WARN msg=\"history: reaction failed\"",
		"reaction=card_library",
		"level=ERROR msg=\"history: squash rule failed\"",
		"error=\"bad rule\"",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistoryLoggerNil(t *testing.T) {
	HistoryLogger(nil).LogHistory(undo.HistoryLogEvent{Op: undo.OpUndo})
}
