// Package badgerkv is a persist.Backend on top of an embedded Badger
// database.
package badgerkv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v3"
)

// Config controls how the database is opened.
type Config struct {
	// Dir holds the database files. Ignored when InMemory is set.
	Dir        string
	InMemory   bool
	SyncWrites bool
	// KeyPrefix namespaces every key, letting several stores share one DB.
	KeyPrefix string
}

// Backend stores payloads in Badger.
type Backend struct {
	db     *badger.DB
	prefix string
	logger *slog.Logger
}

// Open opens (creating if needed) the database described by cfg.
func Open(cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badgerkv: dir is required")
	}

	opts := badger.DefaultOptions(dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: open db: %w", err)
	}

	logger.Debug("badger backend opened", "dir", dir, "in_memory", cfg.InMemory)
	return &Backend{db: db, prefix: cfg.KeyPrefix, logger: logger}, nil
}

func (b *Backend) key(key string) []byte {
	return []byte(b.prefix + key)
}

// Load returns the value stored under key.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badgerkv: get %q: %w", key, err)
	}
	return value, true, nil
}

// Save overwrites the value stored under key.
func (b *Backend) Save(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(key), value)
	})
	if err != nil {
		return fmt.Errorf("badgerkv: set %q: %w", key, err)
	}
	return nil
}

// Close flushes and closes the database.
func (b *Backend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}
