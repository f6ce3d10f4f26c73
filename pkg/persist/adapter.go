// Package persist stores the card library outside the process. The Adapter
// owns the persisted format (a JSON object of card ID to card record, with
// image payloads stripped); Backends only move bytes under a key.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-undo/internal/hydrate"
	"github.com/goliatone/go-undo/pkg/cards"
)

// DefaultKey is the storage key the card library is kept under.
const DefaultKey = "cardLibrary"

var ErrBackendRequired = errors.New("persist: backend is required")

// Backend is a key/value store for raw payloads. Load reports false when the
// key has never been written.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Logger receives warnings about payloads that could not be read.
// *slog.Logger satisfies it.
type Logger interface {
	Warn(msg string, args ...any)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(msg string, args ...any)

// Warn implements Logger.
func (fn LoggerFunc) Warn(msg string, args ...any) {
	if fn != nil {
		fn(msg, args...)
	}
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key = strings.TrimSpace(key); key != "" {
			a.key = key
		}
	}
}

// WithLogger attaches a logger for degraded loads.
func WithLogger(logger Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Adapter reads and writes cards.LibraryData through a Backend.
type Adapter struct {
	backend Backend
	key     string
	logger  Logger
	decoder *hydrate.Decoder[cards.LibraryData]
}

// New constructs an Adapter over backend.
func New(backend Backend, opts ...Option) (*Adapter, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	a := &Adapter{
		backend: backend,
		key:     DefaultKey,
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.decoder = hydrate.NewDecoder(
		hydrate.WithPostHook[cards.LibraryData](normalizeLibrary),
	)
	return a, nil
}

// Key returns the storage key in use.
func (a *Adapter) Key() string {
	return a.key
}

// Load returns the persisted library and whether one was found. Payloads that
// cannot be decoded are logged and reported as absent with an empty library;
// only backend failures are returned as errors.
func (a *Adapter) Load(ctx context.Context) (cards.LibraryData, bool, error) {
	raw, ok, err := a.backend.Load(ctx, a.key)
	if err != nil {
		return cards.LibraryData{}, false, fmt.Errorf("persist: load %q: %w", a.key, err)
	}
	if !ok {
		return cards.LibraryData{}, false, nil
	}

	data, err := a.decoder.Decode(hydrate.Context{Key: a.key, Source: "backend"}, raw)
	if err != nil {
		a.logger.Warn("persist: discarding unreadable library", "key", a.key, "error", err)
		return cards.LibraryData{}, false, nil
	}
	if data == nil {
		return cards.LibraryData{}, false, nil
	}
	return data, true, nil
}

// Save writes data under the adapter key, replacing what was there. Image
// payloads are cleared in the written copy; data itself is not modified.
func (a *Adapter) Save(ctx context.Context, data cards.LibraryData) error {
	raw, err := Encode(data)
	if err != nil {
		return err
	}
	if err := a.backend.Save(ctx, a.key, raw); err != nil {
		return fmt.Errorf("persist: save %q: %w", a.key, err)
	}
	return nil
}

// Encode renders data in the persisted format.
func Encode(data cards.LibraryData) ([]byte, error) {
	raw, err := json.Marshal(data.Sanitized())
	if err != nil {
		return nil, fmt.Errorf("persist: encode library: %w", err)
	}
	return raw, nil
}

// normalizeLibrary backfills card IDs from their keys and strips image data
// that older clients may have persisted.
func normalizeLibrary(_ hydrate.Context, data *cards.LibraryData) error {
	if data == nil || *data == nil {
		return nil
	}
	out := make(cards.LibraryData, len(*data))
	for key, card := range *data {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if strings.TrimSpace(card.ID) == "" {
			card.ID = key
		}
		card.CustomImageData = ""
		out[key] = card
	}
	*data = out
	return nil
}
