package sqlitekv

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-undo/pkg/cards"
	"github.com/goliatone/go-undo/pkg/persist"
)

func openTestBackend(t *testing.T, path string) *Backend {
	t.Helper()
	backend, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := backend.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return backend
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cards.db")
	backend := openTestBackend(t, path)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	backend.now = func() time.Time { return fixed }

	if _, ok, err := backend.Load(ctx, "k"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := backend.Save(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.Save(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	raw, ok, err := backend.Load(ctx, "k")
	if err != nil || !ok || string(raw) != "v2" {
		t.Fatalf("expected v2, got %q ok=%v err=%v", raw, ok, err)
	}

	updatedAt, ok, err := backend.UpdatedAt(ctx, "k")
	if err != nil || !ok || !updatedAt.Equal(fixed) {
		t.Fatalf("expected updated_at %v, got %v ok=%v err=%v", fixed, updatedAt, ok, err)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cards.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Save(ctx, "k", []byte("kept")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := openTestBackend(t, path)
	raw, ok, err := second.Load(ctx, "k")
	if err != nil || !ok || string(raw) != "kept" {
		t.Fatalf("expected kept, got %q ok=%v err=%v", raw, ok, err)
	}
}

func TestAdapterOverSQLite(t *testing.T) {
	ctx := context.Background()
	backend := openTestBackend(t, filepath.Join(t.TempDir(), "cards.db"))

	adapter, err := persist.New(backend)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	if _, ok, err := adapter.Load(ctx); err != nil || ok {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}
	data := cards.LibraryData{"c1": {ID: "c1", Tags: []string{"fire"}}}
	if err := adapter.Save(ctx, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, ok, err := adapter.Load(ctx)
	if err != nil || !ok || !loaded.Equal(data) {
		t.Fatalf("unexpected load: %#v ok=%v err=%v", loaded, ok, err)
	}
}
