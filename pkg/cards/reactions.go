package cards

import (
	"context"
	"fmt"

	undo "github.com/goliatone/go-undo"
	"github.com/goliatone/go-undo/pkg/activity"
)

// Reaction names, used in log lines when a reaction fails.
const (
	ReactionCardState = "card_state"
	ReactionLibrary   = "card_library"
)

// LibrarySaver persists library data. persist.Adapter satisfies it.
type LibrarySaver interface {
	Save(ctx context.Context, data LibraryData) error
}

// CardStateReaction emits card_state.updated on the root emitter whenever
// undo or redo crosses a change in CardState. A nil root is skipped.
func CardStateReaction() undo.Reaction[AppState] {
	return undo.Reaction[AppState]{
		Name: ReactionCardState,
		Changed: func(previous, target AppState) bool {
			return !previous.CardState.Equal(target.CardState)
		},
		Apply: func(ctx context.Context, root undo.Emitter, target undo.Entry[AppState]) error {
			if root == nil {
				return nil
			}
			event := activity.BuildCardStateUpdatedEvent(activity.HistoryEventInput{
				EntryID: target.ID,
				Label:   target.Label,
				Metadata: map[string]any{
					"card_id":     target.State.CardState.Card.ID,
					"selected_id": target.State.CardState.SelectedID,
				},
			})
			if err := root.Emit(ctx, event); err != nil {
				return fmt.Errorf("cards: emit %s: %w", activity.VerbCardStateUpdated, err)
			}
			return nil
		},
	}
}

// LibraryReaction saves the target library whenever undo or redo crosses a
// change in CardLibrary, keeping storage aligned with the restored state.
func LibraryReaction(saver LibrarySaver) undo.Reaction[AppState] {
	return undo.Reaction[AppState]{
		Name: ReactionLibrary,
		Changed: func(previous, target AppState) bool {
			return !previous.CardLibrary.Equal(target.CardLibrary)
		},
		Apply: func(ctx context.Context, _ undo.Emitter, target undo.Entry[AppState]) error {
			if saver == nil {
				return nil
			}
			if err := saver.Save(ctx, target.State.CardLibrary.Data.Clone()); err != nil {
				return fmt.Errorf("cards: save library: %w", err)
			}
			return nil
		},
	}
}

// Reactions returns the card-state and library reactions in that order.
func Reactions(saver LibrarySaver) []undo.Reaction[AppState] {
	return []undo.Reaction[AppState]{
		CardStateReaction(),
		LibraryReaction(saver),
	}
}

// NewHistory constructs a history over AppState wired with Reactions(saver).
func NewHistory(saver LibrarySaver, opts ...undo.Option) *undo.History[AppState] {
	return undo.New(Reactions(saver), opts...)
}
