package undo

import (
	"context"

	"github.com/goliatone/go-undo/pkg/activity"
)

// DefaultSquashLabel is the mutation whose consecutive recordings collapse
// into a single history step under the default squash rule.
const DefaultSquashLabel = "cardLibrary/delete"

// Snapshot is implemented by state types the history can record. Clone must
// return a deep copy that shares no mutable data with the receiver.
type Snapshot[S any] interface {
	Clone() S
}

// Store is the part of the state container the history drives during
// navigation. ReplaceState must not notify mutation subscribers.
type Store[S any] interface {
	ReplaceState(state S)
}

// Emitter receives UI-facing events raised by reactions.
type Emitter interface {
	Emit(ctx context.Context, event activity.Event) error
}

// Direction identifies a navigation request.
type Direction string

const (
	DirectionUndo Direction = "undo"
	DirectionRedo Direction = "redo"
)

// History keeps an ordered list of state snapshots and a cursor pointing at
// the entry that matches the bound store's live state.
//
// Once the first entry has been recorded the history is never empty and
// 0 <= Cursor() < Len() holds after every call. A History is not safe for
// concurrent use.
type History[S Snapshot[S]] struct {
	store      Store[S]
	entries    []Entry[S]
	cursor     int
	reactions  []Reaction[S]
	cfg        config
	navigating bool
}

// New constructs an empty history. reactions run, in order, whenever undo or
// redo moves between two entries.
func New[S Snapshot[S]](reactions []Reaction[S], opts ...Option) *History[S] {
	return &History[S]{
		cursor:    -1,
		reactions: cloneReactions(reactions),
		cfg:       applyOptions(opts),
	}
}

// Init binds the store that undo and redo replace state on. Calling it again
// swaps the store and keeps the recorded entries.
func (h *History[S]) Init(store Store[S]) {
	h.store = store
}

// AddState records state under label. state must already be an independent
// copy; it is retained as is.
//
// Entries after the cursor are dropped first. When the squash rule matches
// the last remaining entry, that entry is replaced instead of extended.
// Calls made while the history is replacing store state for undo or redo are
// ignored.
func (h *History[S]) AddState(label string, state S) {
	if h.navigating {
		h.log(HistoryLogEvent{Op: OpIgnored, Label: label, Cursor: h.cursor, Length: len(h.entries)})
		return
	}

	truncated := 0
	if h.cursor+1 < len(h.entries) {
		truncated = len(h.entries) - (h.cursor + 1)
		clear(h.entries[h.cursor+1:])
		h.entries = h.entries[:h.cursor+1]
	}

	squashed := false
	if n := len(h.entries); n > 0 {
		previous := h.entries[n-1]
		match, err := h.cfg.squash.ShouldSquash(SquashContext{
			Label:    label,
			Previous: previous.Label,
			Cursor:   h.cursor,
			Length:   n,
		})
		if err != nil {
			h.log(HistoryLogEvent{Op: OpRule, Label: label, EntryID: previous.ID, Cursor: h.cursor, Length: n, Err: err})
		}
		if match && err == nil {
			h.entries[n-1] = Entry[S]{}
			h.entries = h.entries[:n-1]
			h.cursor--
			squashed = true
		}
	}

	entry := Entry[S]{
		ID:         h.cfg.newID(),
		Label:      label,
		State:      state,
		RecordedAt: h.cfg.now(),
	}
	h.entries = append(h.entries, entry)
	h.cursor++

	h.log(HistoryLogEvent{
		Op:        OpRecord,
		Label:     label,
		EntryID:   entry.ID,
		Cursor:    h.cursor,
		Length:    len(h.entries),
		Squashed:  squashed,
		Truncated: truncated,
	})
	h.cfg.observer.Recorded(label, squashed, truncated, len(h.entries))
	h.notify(context.Background(), activity.BuildHistoryRecordedEvent(h.eventInput(entry)))
}

// Undo moves to the previous entry. It reports false, and does nothing, when
// the cursor already sits on the oldest entry.
func (h *History[S]) Undo(ctx context.Context, root Emitter) bool {
	return h.move(ctx, root, DirectionUndo)
}

// Redo moves to the next entry. It reports false, and does nothing, when the
// cursor already sits on the newest entry.
func (h *History[S]) Redo(ctx context.Context, root Emitter) bool {
	return h.move(ctx, root, DirectionRedo)
}

func (h *History[S]) move(ctx context.Context, root Emitter, direction Direction) bool {
	step := 1
	if direction == DirectionUndo {
		step = -1
	}
	target := h.cursor + step
	if h.cursor < 0 || target < 0 || target >= len(h.entries) {
		h.cfg.observer.Navigated(direction, false, h.cursor, len(h.entries))
		return false
	}
	if h.store == nil {
		h.log(HistoryLogEvent{Op: OpUnbound, Cursor: h.cursor, Length: len(h.entries)})
		h.cfg.observer.Navigated(direction, false, h.cursor, len(h.entries))
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	previous := h.entries[h.cursor]
	next := h.entries[target]
	h.replace(ctx, root, previous, next)
	h.cursor = target

	op, build := OpUndo, activity.BuildHistoryUndoneEvent
	if direction == DirectionRedo {
		op, build = OpRedo, activity.BuildHistoryRedoneEvent
	}
	h.log(HistoryLogEvent{Op: op, Label: next.Label, EntryID: next.ID, Cursor: h.cursor, Length: len(h.entries)})
	h.cfg.observer.Navigated(direction, true, h.cursor, len(h.entries))
	h.notify(ctx, build(h.eventInput(next)))
	return true
}

func (h *History[S]) replace(ctx context.Context, root Emitter, previous, next Entry[S]) {
	h.navigating = true
	defer func() { h.navigating = false }()

	h.store.ReplaceState(next.State.Clone())
	h.fireEvents(ctx, root, previous, next)
}

// fireEvents runs every reaction whose watched substructure differs between
// the entry being left and the entry being entered. Failures are logged and
// never stop navigation.
func (h *History[S]) fireEvents(ctx context.Context, root Emitter, previous, target Entry[S]) {
	for _, reaction := range h.reactions {
		if reaction.Changed == nil || reaction.Apply == nil {
			continue
		}
		if !reaction.Changed(previous.State, target.State) {
			continue
		}
		if err := reaction.Apply(ctx, root, target); err != nil {
			h.log(HistoryLogEvent{
				Op:       OpReaction,
				Label:    target.Label,
				EntryID:  target.ID,
				Cursor:   h.cursor,
				Length:   len(h.entries),
				Reaction: reaction.Name,
				Err:      err,
			})
		}
	}
}

func (h *History[S]) notify(ctx context.Context, event activity.Event) {
	if !h.cfg.hooks.Enabled() {
		return
	}
	if err := h.cfg.hooks.Notify(ctx, event); err != nil {
		h.log(HistoryLogEvent{Op: OpHook, Label: event.Verb, EntryID: event.ObjectID, Cursor: h.cursor, Length: len(h.entries), Err: err})
	}
}

func (h *History[S]) eventInput(entry Entry[S]) activity.HistoryEventInput {
	return activity.HistoryEventInput{
		EntryID:    entry.ID,
		Label:      entry.Label,
		Cursor:     h.cursor,
		Length:     len(h.entries),
		Channel:    h.cfg.channel,
		OccurredAt: h.cfg.now(),
	}
}

func (h *History[S]) log(event HistoryLogEvent) {
	h.cfg.logger.LogHistory(event)
}

// Len returns the number of recorded entries.
func (h *History[S]) Len() int {
	return len(h.entries)
}

// Cursor returns the index of the entry matching the live state, or -1 when
// nothing has been recorded yet.
func (h *History[S]) Cursor() int {
	return h.cursor
}

// CanUndo reports whether Undo would move.
func (h *History[S]) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether Redo would move.
func (h *History[S]) CanRedo() bool {
	return h.cursor >= 0 && h.cursor+1 < len(h.entries)
}

// Current returns the entry under the cursor.
func (h *History[S]) Current() (Entry[S], bool) {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return Entry[S]{}, false
	}
	return h.entries[h.cursor], true
}

// Entries returns a copy of the entry list. The snapshots themselves are
// shared and must not be modified.
func (h *History[S]) Entries() []Entry[S] {
	if len(h.entries) == 0 {
		return nil
	}
	return append([]Entry[S](nil), h.entries...)
}
