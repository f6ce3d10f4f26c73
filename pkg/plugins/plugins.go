// Package plugins wires persistence and history onto a store.
//
// Install subscribes the autosaver before the history, so on every commit
// storage is written first and the history entry is recorded second. Both
// observe every mutation independently of each other.
package plugins

import (
	"context"
	"fmt"

	undo "github.com/goliatone/go-undo"
	"github.com/goliatone/go-undo/pkg/cards"
	"github.com/goliatone/go-undo/pkg/store"
)

// Subscriber names, in the order Install registers them.
const (
	SubscriberAutosaver = "autosaver"
	SubscriberHistory   = "history"
)

// Logger is the subset of *slog.Logger the plugins use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Persister loads and saves the card library. persist.Adapter satisfies it.
type Persister interface {
	Load(ctx context.Context) (cards.LibraryData, bool, error)
	Save(ctx context.Context, data cards.LibraryData) error
}

// SaveObserver is told about every save the autosaver attempts.
type SaveObserver func(trigger string, err error)

// Option configures Autosaver and Install.
type Option func(*config)

type config struct {
	logger  Logger
	onSave  SaveObserver
	trigger map[string]bool
}

func applyOptions(opts []Option) config {
	cfg := config{
		logger: noopLogger{},
		trigger: map[string]bool{
			cards.MutationLibraryPush:   true,
			cards.MutationLibraryDelete: true,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger attaches a logger. *slog.Logger satisfies Logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithSaveObserver registers fn to be called after every autosave attempt.
func WithSaveObserver(fn SaveObserver) Option {
	return func(cfg *config) {
		cfg.onSave = fn
	}
}

// Autosaver loads the persisted library into st through cardLibrary/load and
// then saves a sanitized copy of the library after every push or delete.
// Load and save failures are logged; an unreadable library starts empty.
// The returned func unsubscribes.
func Autosaver(ctx context.Context, st *store.Store[cards.AppState], persister Persister, opts ...Option) (func(), error) {
	if st == nil {
		return nil, fmt.Errorf("plugins: store is required")
	}
	if persister == nil {
		return nil, fmt.Errorf("plugins: persister is required")
	}
	cfg := applyOptions(opts)

	data, found, err := persister.Load(ctx)
	if err != nil {
		cfg.logger.Warn("plugins: library load failed, starting empty", "error", err)
		data = cards.LibraryData{}
	}
	if err := st.Commit(ctx, cards.MutationLibraryLoad, data); err != nil {
		return nil, fmt.Errorf("plugins: load library into store: %w", err)
	}
	cfg.logger.Info("plugins: library loaded", "cards", len(data), "found", found)

	unsubscribe := st.Subscribe(SubscriberAutosaver, func(ctx context.Context, mutation store.Mutation, state cards.AppState) {
		if !cfg.trigger[mutation.Type] {
			return
		}
		err := persister.Save(ctx, state.CardLibrary.Data.Sanitized())
		if err != nil {
			cfg.logger.Error("plugins: autosave failed", "mutation", mutation.Type, "error", err)
		}
		if cfg.onSave != nil {
			cfg.onSave(mutation.Type, err)
		}
	})
	return unsubscribe, nil
}

// UndoRedo binds h to st, records the current state as the initial entry
// (label "") and records a copy of the state after every committed mutation.
// The returned func unsubscribes.
func UndoRedo[S interface{ Clone() S }](st *store.Store[S], h *undo.History[S]) (func(), error) {
	if st == nil {
		return nil, fmt.Errorf("plugins: store is required")
	}
	if h == nil {
		return nil, fmt.Errorf("plugins: history is required")
	}
	h.Init(st)
	h.AddState("", st.Snapshot())

	unsubscribe := st.Subscribe(SubscriberHistory, func(_ context.Context, mutation store.Mutation, state S) {
		h.AddState(mutation.Type, state.Clone())
	})
	return unsubscribe, nil
}

// Install runs Autosaver and then UndoRedo and returns one teardown func for
// both subscriptions.
func Install(ctx context.Context, st *store.Store[cards.AppState], persister Persister, h *undo.History[cards.AppState], opts ...Option) (func(), error) {
	stopAutosave, err := Autosaver(ctx, st, persister, opts...)
	if err != nil {
		return nil, err
	}
	stopHistory, err := UndoRedo(st, h)
	if err != nil {
		stopAutosave()
		return nil, err
	}
	return func() {
		stopHistory()
		stopAutosave()
	}, nil
}
