package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func collect(lines *[]string) Handler {
	return func(_ context.Context, line string) error {
		*lines = append(*lines, line)
		return nil
	}
}

func TestRunExit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"exit command", "push\nexit\nundo\n", []string{"push"}},
		{"quit command", "quit\n", nil},
		{"EOF", "", nil},
		{"last line without newline", "undo\nredo", []string{"undo", "redo"}},
		{"empty lines", "\n\n  \nshow\n", []string{"show"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []string
			out := &bytes.Buffer{}
			if err := New(strings.NewReader(tt.input), out, collect(&lines)).Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if strings.Join(lines, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("expected %v, got %v", tt.want, lines)
			}
		})
	}
}

func TestRunPrintsErrorsAndContinues(t *testing.T) {
	calls := 0
	handler := func(_ context.Context, line string) error {
		calls++
		if line == "bad" {
			return errors.New("boom")
		}
		return nil
	}
	out := &bytes.Buffer{}
	if err := New(strings.NewReader("bad\ngood\n"), out, handler).WithPrompt("> ").Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if !strings.Contains(out.String(), "error: boom") || !strings.HasPrefix(out.String(), "> ") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunHandlerQuit(t *testing.T) {
	calls := 0
	handler := func(context.Context, string) error {
		calls++
		return ErrQuit
	}
	if err := New(strings.NewReader("stop\nmore\n"), &bytes.Buffer{}, handler).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected loop to stop after ErrQuit, got %d calls", calls)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var lines []string
	err := New(strings.NewReader("push\n"), &bytes.Buffer{}, collect(&lines)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunRequiresHandler(t *testing.T) {
	if err := New(strings.NewReader(""), &bytes.Buffer{}, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected nil handler to fail")
	}
}
