// Package store implements a small synchronous state container: named
// mutations are committed against a copy of the live state and every
// committed mutation is announced to subscribers in registration order.
//
// Subscribers are named so the dispatch order is observable through
// Subscribers(). ReplaceState swaps the live state without notifying anyone,
// which is what undo/redo rely on to avoid recording their own navigation.
//
// A Store is not safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownMutation is returned by Commit when no handler is registered
	// for the requested mutation type.
	ErrUnknownMutation = errors.New("store: unknown mutation")
	// ErrDuplicateMutation is returned by Register when a handler already
	// exists for the mutation type.
	ErrDuplicateMutation = errors.New("store: mutation already registered")
	// ErrReentrantCommit is returned when a subscriber commits while the
	// store is still dispatching the previous mutation.
	ErrReentrantCommit = errors.New("store: commit while dispatching")
)

// Cloner is implemented by state types that can produce an independent deep
// copy of themselves.
type Cloner[S any] interface {
	Clone() S
}

// Mutation describes one committed change.
type Mutation struct {
	Type    string
	Payload any
}

// MutationFunc applies payload to state. Handlers receive a private copy of
// the live state; returning an error discards the copy.
type MutationFunc[S any] func(state *S, payload any) error

// Listener observes committed mutations. state is the live value and must be
// cloned before it is retained.
type Listener[S any] func(ctx context.Context, mutation Mutation, state S)

type subscription[S any] struct {
	id       int
	name     string
	listener Listener[S]
}

// Store holds the live state and the mutation handlers that may change it.
type Store[S Cloner[S]] struct {
	state       S
	mutations   map[string]MutationFunc[S]
	subscribers []subscription[S]
	nextID      int
	dispatching bool
}

// New constructs a Store seeded with initial.
func New[S Cloner[S]](initial S) *Store[S] {
	return &Store[S]{
		state:     initial,
		mutations: map[string]MutationFunc[S]{},
	}
}

// Register binds fn to the mutation type name.
func (s *Store[S]) Register(name string, fn MutationFunc[S]) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("store: mutation name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("store: mutation %q handler is nil", name)
	}
	if _, exists := s.mutations[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateMutation, name)
	}
	s.mutations[name] = fn
	return nil
}

// RegisterAll registers every handler in mutations, stopping at the first
// failure.
func (s *Store[S]) RegisterAll(mutations map[string]MutationFunc[S]) error {
	for name, fn := range mutations {
		if err := s.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// Commit runs the handler registered for name and, when it succeeds, makes
// the result live and notifies subscribers before returning.
func (s *Store[S]) Commit(ctx context.Context, name string, payload any) error {
	if s.dispatching {
		return fmt.Errorf("%w: %q", ErrReentrantCommit, name)
	}
	fn, ok := s.mutations[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMutation, name)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	next := s.state.Clone()
	if err := fn(&next, payload); err != nil {
		return fmt.Errorf("store: commit %q: %w", name, err)
	}
	s.state = next

	s.dispatch(ctx, Mutation{Type: name, Payload: payload})
	return nil
}

func (s *Store[S]) dispatch(ctx context.Context, mutation Mutation) {
	s.dispatching = true
	defer func() { s.dispatching = false }()

	subscribers := append([]subscription[S](nil), s.subscribers...)
	for _, sub := range subscribers {
		sub.listener(ctx, mutation, s.state)
	}
}

// Subscribe appends listener to the dispatch list under name and returns a
// func that removes it again.
func (s *Store[S]) Subscribe(name string, listener Listener[S]) func() {
	if listener == nil {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscription[S]{
		id:       id,
		name:     strings.TrimSpace(name),
		listener: listener,
	})
	return func() { s.unsubscribe(id) }
}

func (s *Store[S]) unsubscribe(id int) {
	for i, sub := range s.subscribers {
		if sub.id == id {
			s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
			return
		}
	}
}

// Subscribers returns subscriber names in dispatch order.
func (s *Store[S]) Subscribers() []string {
	if len(s.subscribers) == 0 {
		return nil
	}
	names := make([]string, len(s.subscribers))
	for i, sub := range s.subscribers {
		names[i] = sub.name
	}
	return names
}

// ReplaceState swaps the live state. Subscribers are not notified.
func (s *Store[S]) ReplaceState(state S) {
	s.state = state
}

// State returns the live state. Callers must treat it as read-only.
func (s *Store[S]) State() S {
	return s.state
}

// Snapshot returns an independent copy of the live state.
func (s *Store[S]) Snapshot() S {
	return s.state.Clone()
}

// Mutations returns the registered mutation names sorted alphabetically.
func (s *Store[S]) Mutations() []string {
	names := make([]string, 0, len(s.mutations))
	for name := range s.mutations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
