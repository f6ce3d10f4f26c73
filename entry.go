package undo

import (
	"context"
	"time"
)

// Entry is one recorded snapshot. Entries are never modified after they are
// recorded.
type Entry[S any] struct {
	ID         string
	Label      string
	State      S
	RecordedAt time.Time
}

// Reaction couples a change test over one substructure of the state with the
// side effect to run when navigation crosses that change.
type Reaction[S any] struct {
	Name    string
	Changed func(previous, target S) bool
	Apply   func(ctx context.Context, root Emitter, target Entry[S]) error
}

func cloneReactions[S any](reactions []Reaction[S]) []Reaction[S] {
	if len(reactions) == 0 {
		return nil
	}
	out := make([]Reaction[S], 0, len(reactions))
	for _, reaction := range reactions {
		if reaction.Changed == nil || reaction.Apply == nil {
			continue
		}
		out = append(out, reaction)
	}
	return out
}
