package cards

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-undo/pkg/store"
)

// Mutation names. Only the cardLibrary ones carry special meaning: push and
// delete are persisted, consecutive deletes squash into one history step.
const (
	MutationLibraryLoad   = "cardLibrary/load"
	MutationLibraryPush   = "cardLibrary/push"
	MutationLibraryDelete = "cardLibrary/delete"
	MutationCardSelect    = "cardState/select"
	MutationCardEdit      = "cardState/edit"
	MutationCardReset     = "cardState/reset"
	MutationPreferenceSet = "preferences/set"
)

var (
	ErrCardNotFound   = errors.New("cards: card not found")
	ErrCardIDRequired = errors.New("cards: card id is required")
	ErrUnknownField   = errors.New("cards: unknown field")
	ErrInvalidPayload = errors.New("cards: invalid payload")
)

// Mutations returns the handlers for every mutation above.
func Mutations() map[string]store.MutationFunc[AppState] {
	return map[string]store.MutationFunc[AppState]{
		MutationLibraryLoad:   loadLibrary,
		MutationLibraryPush:   pushCard,
		MutationLibraryDelete: deleteCards,
		MutationCardSelect:    selectCard,
		MutationCardEdit:      editCard,
		MutationCardReset:     resetCard,
		MutationPreferenceSet: setPreferences,
	}
}

// NewStore returns a store seeded with initial and all card mutations
// registered.
func NewStore(initial AppState) (*store.Store[AppState], error) {
	s := store.New(initial)
	if err := s.RegisterAll(Mutations()); err != nil {
		return nil, err
	}
	return s, nil
}

// loadLibrary replaces the library with payload. A nil payload or the empty
// string left behind by a never-saved library loads an empty collection.
func loadLibrary(state *AppState, payload any) error {
	var data LibraryData
	switch value := payload.(type) {
	case nil:
	case LibraryData:
		data = value.Clone()
	case map[string]Card:
		data = LibraryData(value).Clone()
	case string:
		if strings.TrimSpace(value) != "" {
			return fmt.Errorf("%w: load expects library data, got string %q", ErrInvalidPayload, value)
		}
	default:
		return fmt.Errorf("%w: load expects library data, got %T", ErrInvalidPayload, payload)
	}
	if data == nil {
		data = LibraryData{}
	}
	state.CardLibrary = CardLibrary{Data: data, Loaded: true}
	return nil
}

// pushCard stores a card in the library, replacing any card with the same
// ID. A nil payload pushes the card currently being edited.
func pushCard(state *AppState, payload any) error {
	var card Card
	switch value := payload.(type) {
	case nil:
		card = state.CardState.Card.Clone()
	case Card:
		card = value.Clone()
	case *Card:
		if value == nil {
			return fmt.Errorf("%w: push expects a card", ErrInvalidPayload)
		}
		card = value.Clone()
	default:
		return fmt.Errorf("%w: push expects a card, got %T", ErrInvalidPayload, payload)
	}
	card.ID = strings.TrimSpace(card.ID)
	if card.ID == "" {
		return ErrCardIDRequired
	}
	if state.CardLibrary.Data == nil {
		state.CardLibrary.Data = LibraryData{}
	}
	state.CardLibrary.Data[card.ID] = card
	if state.CardState.Card.ID == card.ID {
		state.CardState.SelectedID = card.ID
		state.CardState.Dirty = false
	}
	return nil
}

// deleteCards removes one ID or a list of IDs. Unknown IDs are ignored so a
// delete never fails on a stale selection.
func deleteCards(state *AppState, payload any) error {
	var ids []string
	switch value := payload.(type) {
	case string:
		ids = []string{value}
	case []string:
		ids = value
	default:
		return fmt.Errorf("%w: delete expects an id or ids, got %T", ErrInvalidPayload, payload)
	}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return ErrCardIDRequired
		}
		delete(state.CardLibrary.Data, id)
		if state.CardState.SelectedID == id {
			state.CardState.SelectedID = ""
			state.CardState.Dirty = true
		}
	}
	return nil
}

// selectCard opens a library card on the canvas.
func selectCard(state *AppState, payload any) error {
	id, ok := payload.(string)
	if !ok {
		return fmt.Errorf("%w: select expects an id, got %T", ErrInvalidPayload, payload)
	}
	card, ok := state.CardLibrary.Data[strings.TrimSpace(id)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrCardNotFound, id)
	}
	state.CardState = CardState{Card: card.Clone(), SelectedID: card.ID}
	return nil
}

// CardEdit assigns Value to Field on the card being edited.
type CardEdit struct {
	Field string
	Value string
}

// editCard applies a Card (full replacement), a CardEdit, or a list of
// CardEdit to the card being edited.
func editCard(state *AppState, payload any) error {
	switch value := payload.(type) {
	case Card:
		state.CardState.Card = value.Clone()
	case CardEdit:
		if err := state.CardState.Card.Set(value.Field, value.Value); err != nil {
			return err
		}
	case []CardEdit:
		for _, edit := range value {
			if err := state.CardState.Card.Set(edit.Field, edit.Value); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: edit expects a card or card edits, got %T", ErrInvalidPayload, payload)
	}
	state.CardState.Dirty = true
	return nil
}

func resetCard(state *AppState, _ any) error {
	state.CardState = CardState{}
	return nil
}

// setPreferences accepts a Preferences value or a map with theme/locale keys.
func setPreferences(state *AppState, payload any) error {
	switch value := payload.(type) {
	case Preferences:
		state.Preferences = value
	case map[string]string:
		for key, v := range value {
			switch strings.ToLower(key) {
			case "theme":
				state.Preferences.Theme = v
			case "locale":
				state.Preferences.Locale = v
			default:
				return fmt.Errorf("%w: preference %q", ErrUnknownField, key)
			}
		}
	default:
		return fmt.Errorf("%w: preferences expects a map, got %T", ErrInvalidPayload, payload)
	}
	return nil
}
