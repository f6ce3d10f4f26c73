package cards

import (
	"context"
	"errors"
	"testing"

	undo "github.com/goliatone/go-undo"
	"github.com/goliatone/go-undo/pkg/activity"
)

type recordingSaver struct {
	saved []LibraryData
	err   error
}

func (s *recordingSaver) Save(_ context.Context, data LibraryData) error {
	s.saved = append(s.saved, data)
	return s.err
}

func TestCardStateReactionEmitsOnChange(t *testing.T) {
	capture := &activity.CaptureHook{}
	root := activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})
	reaction := CardStateReaction()

	previous := AppState{}
	target := AppState{CardState: CardState{Card: Card{ID: "c1"}, SelectedID: "c1"}}
	if reaction.Changed(previous, previous.Clone()) {
		t.Fatalf("expected identical card states to be unchanged")
	}
	if !reaction.Changed(previous, target) {
		t.Fatalf("expected differing card states to be changed")
	}

	entry := undo.Entry[AppState]{ID: "entry-1", Label: MutationCardSelect, State: target}
	if err := reaction.Apply(context.Background(), root, entry); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != activity.VerbCardStateUpdated || event.ObjectID != "entry-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Channel != activity.DefaultChannel {
		t.Fatalf("expected default channel, got %q", event.Channel)
	}
	if event.Metadata["card_id"] != "c1" {
		t.Fatalf("expected card id metadata, got %+v", event.Metadata)
	}

	if err := reaction.Apply(context.Background(), nil, entry); err != nil {
		t.Fatalf("expected nil root to be skipped, got %v", err)
	}
}

func TestCardStateReactionWrapsEmitError(t *testing.T) {
	boom := errors.New("boom")
	root := activity.NewEmitter(activity.Hooks{&activity.CaptureHook{Err: boom}}, activity.Config{Enabled: true})
	err := CardStateReaction().Apply(context.Background(), root, undo.Entry[AppState]{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped emit error, got %v", err)
	}
}

func TestLibraryReactionSavesTargetLibrary(t *testing.T) {
	saver := &recordingSaver{}
	reaction := LibraryReaction(saver)

	previous := AppState{CardLibrary: CardLibrary{Data: LibraryData{"a": {ID: "a"}}, Loaded: true}}
	target := AppState{CardLibrary: CardLibrary{Data: LibraryData{}, Loaded: true}}
	if reaction.Changed(previous, previous.Clone()) {
		t.Fatalf("expected identical libraries to be unchanged")
	}
	if !reaction.Changed(previous, target) {
		t.Fatalf("expected differing libraries to be changed")
	}

	if err := reaction.Apply(context.Background(), nil, undo.Entry[AppState]{State: previous}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(saver.saved) != 1 || !saver.saved[0].Equal(previous.CardLibrary.Data) {
		t.Fatalf("expected target library saved, got %+v", saver.saved)
	}

	saver.saved[0]["b"] = Card{ID: "b"}
	if _, ok := previous.CardLibrary.Data["b"]; ok {
		t.Fatalf("expected saver to receive a copy of the snapshot")
	}
}

func TestLibraryReactionIgnoresCardStateChanges(t *testing.T) {
	reaction := LibraryReaction(&recordingSaver{})
	previous := AppState{CardState: CardState{SelectedID: "a"}}
	target := AppState{CardState: CardState{SelectedID: "b"}}
	if reaction.Changed(previous, target) {
		t.Fatalf("expected card state changes to leave the library reaction idle")
	}
}

func TestReactionsOrder(t *testing.T) {
	reactions := Reactions(nil)
	if len(reactions) != 2 {
		t.Fatalf("expected two reactions, got %d", len(reactions))
	}
	if reactions[0].Name != ReactionCardState || reactions[1].Name != ReactionLibrary {
		t.Fatalf("unexpected order: %s, %s", reactions[0].Name, reactions[1].Name)
	}
	if err := reactions[1].Apply(context.Background(), nil, undo.Entry[AppState]{}); err != nil {
		t.Fatalf("expected nil saver to be a no-op, got %v", err)
	}
}
