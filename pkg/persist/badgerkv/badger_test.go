package badgerkv

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/goliatone/go-undo/pkg/cards"
	"github.com/goliatone/go-undo/pkg/persist"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := Open(Config{}, quietLogger()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRoundTripOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend, err := Open(Config{Dir: dir, SyncWrites: true}, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok, err := backend.Load(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := backend.Save(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.Save(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(Config{Dir: dir}, quietLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		if err := reopened.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	raw, ok, err := reopened.Load(ctx, "k")
	if err != nil || !ok || string(raw) != "v2" {
		t.Fatalf("expected v2 after reopen, got %q ok=%v err=%v", raw, ok, err)
	}
}

func TestKeyPrefixIsolatesStores(t *testing.T) {
	ctx := context.Background()
	backend, err := Open(Config{InMemory: true, KeyPrefix: "tenant-a/"}, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })

	if err := backend.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("save: %v", err)
	}
	other := &Backend{db: backend.db, prefix: "tenant-b/", logger: quietLogger()}
	if _, ok, _ := other.Load(ctx, "k"); ok {
		t.Fatalf("expected prefixes to isolate keys")
	}
}

func TestAdapterOverBadger(t *testing.T) {
	ctx := context.Background()
	backend, err := Open(Config{InMemory: true}, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })

	adapter, err := persist.New(backend)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	data := cards.LibraryData{"c1": {ID: "c1", Name: "Ember", CustomImageData: "blob"}}
	if err := adapter.Save(ctx, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, ok, err := adapter.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !loaded.Equal(data.Sanitized()) {
		t.Fatalf("unexpected library: %#v", loaded)
	}
}
