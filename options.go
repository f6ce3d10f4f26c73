package undo

import (
	"strings"
	"time"

	"github.com/goliatone/go-undo/pkg/activity"
	"github.com/google/uuid"
)

// Option configures a History.
type Option func(*config)

type config struct {
	squash   SquashRule
	logger   Logger
	observer Observer
	hooks    activity.Hooks
	channel  string
	now      func() time.Time
	newID    func() string
}

func applyOptions(opts []Option) config {
	cfg := config{
		squash:   DefaultSquashRule(),
		logger:   noopLogger{},
		observer: noopObserver{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithSquashRule replaces the rule deciding whether a new recording replaces
// the last entry. A nil rule disables squashing.
func WithSquashRule(rule SquashRule) Option {
	return func(cfg *config) {
		if rule == nil {
			cfg.squash = neverSquash{}
			return
		}
		cfg.squash = rule
	}
}

// WithLogger attaches a history logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithObserver attaches an observer notified of every recording and
// navigation attempt.
func WithObserver(observer Observer) Option {
	return func(cfg *config) {
		if observer == nil {
			cfg.observer = noopObserver{}
			return
		}
		cfg.observer = observer
	}
}

// WithActivityHooks publishes history.recorded, history.undone and
// history.redone events to hooks. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *config) {
		cfg.hooks = normalized
	}
}

// WithActivityChannel sets the channel stamped on history activity events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.channel = strings.TrimSpace(channel)
	}
}

// WithClock overrides the time source used for Entry.RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithIDGenerator overrides the Entry.ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(cfg *config) {
		if newID != nil {
			cfg.newID = newID
		}
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
