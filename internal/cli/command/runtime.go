package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	undo "github.com/goliatone/go-undo"
	"github.com/goliatone/go-undo/internal/config"
	"github.com/goliatone/go-undo/internal/logging"
	"github.com/goliatone/go-undo/pkg/activity"
	"github.com/goliatone/go-undo/pkg/activity/usersink"
	"github.com/goliatone/go-undo/pkg/cards"
	"github.com/goliatone/go-undo/pkg/metrics"
	"github.com/goliatone/go-undo/pkg/persist"
	"github.com/goliatone/go-undo/pkg/persist/badgerkv"
	"github.com/goliatone/go-undo/pkg/persist/sqlitekv"
	"github.com/goliatone/go-undo/pkg/plugins"
	"github.com/goliatone/go-undo/pkg/store"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime is a fully wired workspace: store, history, persisted library and
// the optional metrics and activity plumbing.
type Runtime struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    *store.Store[cards.AppState]
	History  *undo.History[cards.AppState]
	Library  *persist.Adapter
	Root     *activity.Emitter
	Metrics  *metrics.HistoryMetrics
	Registry *prometheus.Registry

	teardown func()
	close    func() error
}

// Open builds a runtime from cfg. The persisted library is loaded into the
// store and recorded as the first history entry before Open returns.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	rule, err := SquashRule(cfg.Squash)
	if err != nil {
		return nil, err
	}
	library, closeBackend, err := OpenLibrary(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Logger: logger, Library: library, close: closeBackend}

	historyOpts := []undo.Option{
		undo.WithSquashRule(rule),
		undo.WithLogger(logging.HistoryLogger(logger)),
		undo.WithActivityChannel(cfg.Activity.Channel),
	}
	pluginOpts := []plugins.Option{plugins.WithLogger(logger)}

	if cfg.Metrics.Enabled {
		rt.Registry = prometheus.NewRegistry()
		rt.Metrics, err = metrics.NewHistoryMetrics(rt.Registry, cfg.Metrics.Namespace)
		if err != nil {
			rt.Close()
			return nil, err
		}
		historyOpts = append(historyOpts, undo.WithObserver(rt.Metrics))
		pluginOpts = append(pluginOpts, plugins.WithSaveObserver(rt.Metrics.LibrarySaved))
	}

	var hooks activity.Hooks
	if cfg.Activity.Enabled {
		hooks = activity.Hooks{usersink.Hook{Sink: activityLog{logger: logger}, ActorID: cfg.Activity.ActorID}}
		historyOpts = append(historyOpts, undo.WithActivityHooks(hooks))
	}
	rt.Root = activity.NewEmitter(hooks, activity.Config{Enabled: cfg.Activity.Enabled, Channel: cfg.Activity.Channel})

	rt.History = cards.NewHistory(navigationSaver{library: library, metrics: rt.Metrics}, historyOpts...)
	rt.Store, err = cards.NewStore(cards.AppState{})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.teardown, err = plugins.Install(ctx, rt.Store, library, rt.History, pluginOpts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	logger.Debug("runtime ready", "driver", cfg.Storage.Driver, "squash", cfg.Squash.Engine, "metrics", cfg.Metrics.Enabled)
	return rt, nil
}

// Undo steps back one entry.
func (rt *Runtime) Undo(ctx context.Context) bool {
	return rt.History.Undo(ctx, rt.Root)
}

// Redo steps forward one entry.
func (rt *Runtime) Redo(ctx context.Context) bool {
	return rt.History.Redo(ctx, rt.Root)
}

// Close unsubscribes the plugins and closes the storage backend.
func (rt *Runtime) Close() error {
	if rt.teardown != nil {
		rt.teardown()
		rt.teardown = nil
	}
	if rt.close == nil {
		return nil
	}
	err := rt.close()
	rt.close = nil
	return err
}

// ServeMetrics exposes the registry on the configured address until the
// returned func is called. It is a no-op when metrics are disabled.
func (rt *Runtime) ServeMetrics() (func(context.Context) error, error) {
	if rt.Registry == nil {
		return func(context.Context) error { return nil }, nil
	}
	listener, err := net.Listen("tcp", rt.Config.Metrics.Addr)
	if err != nil {
		return nil, fmt.Errorf("command: listen metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(rt.Registry))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error("metrics server stopped", "error", err)
		}
	}()
	rt.Logger.Info("metrics listening", "addr", listener.Addr().String())
	return server.Shutdown, nil
}

// SquashRule builds the rule selected by cfg.
func SquashRule(cfg config.SquashConfig) (undo.SquashRule, error) {
	switch cfg.Engine {
	case "", config.EngineBuiltin:
		return undo.DefaultSquashRule(), nil
	case config.EngineExpr:
		return undo.NewExprSquashRule(cfg.Expression)
	case config.EngineCEL:
		return undo.NewCELSquashRule(cfg.Expression)
	case config.EngineJS:
		return undo.NewJSSquashRule(cfg.Expression)
	default:
		return nil, fmt.Errorf("command: unknown squash engine %q", cfg.Engine)
	}
}

// OpenLibrary opens the configured backend and wraps it in a persistence
// adapter. The returned func releases the backend.
func OpenLibrary(cfg config.StorageConfig, logger *slog.Logger) (*persist.Adapter, func() error, error) {
	var (
		backend persist.Backend
		closer  = func() error { return nil }
	)
	switch cfg.Driver {
	case "", config.DriverMemory:
		backend = persist.NewMemoryBackend()
	case config.DriverFile:
		fb, err := persist.NewFileBackend(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		backend = fb
	case config.DriverBadger:
		bb, err := badgerkv.Open(badgerkv.Config{Dir: cfg.Path, SyncWrites: true}, logger)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = bb, bb.Close
	case config.DriverSQLite:
		sb, err := sqlitekv.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = sb, sb.Close
	default:
		return nil, nil, fmt.Errorf("command: unknown storage driver %q", cfg.Driver)
	}

	adapter, err := persist.New(backend, persist.WithKey(cfg.Key), persist.WithLogger(logger))
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return adapter, closer, nil
}

// navigationSaver persists the library when undo or redo changes it and
// reports the outcome to metrics.
type navigationSaver struct {
	library *persist.Adapter
	metrics *metrics.HistoryMetrics
}

func (s navigationSaver) Save(ctx context.Context, data cards.LibraryData) error {
	err := s.library.Save(ctx, data)
	if s.metrics != nil {
		s.metrics.LibrarySaved("navigation", err)
	}
	return err
}

// activityLog is a go-users activity sink that writes records to the log.
type activityLog struct {
	logger *slog.Logger
}

var _ usertypes.ActivitySink = activityLog{}

func (a activityLog) Log(_ context.Context, record usertypes.ActivityRecord) error {
	a.logger.Info("activity",
		"verb", record.Verb,
		"object_type", record.ObjectType,
		"object_id", record.ObjectID,
		"channel", record.Channel,
		"actor_id", record.ActorID.String(),
		"data", record.Data,
	)
	return nil
}
