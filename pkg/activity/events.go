package activity

import (
	"strings"
	"time"
)

// Verbs emitted by this module.
const (
	// VerbCardStateUpdated is the CARD_STATE_UPDATED event: the card being
	// edited changed because of an undo or redo.
	VerbCardStateUpdated = "card_state.updated"
	VerbHistoryRecorded  = "history.recorded"
	VerbHistoryUndone    = "history.undone"
	VerbHistoryRedone    = "history.redone"
)

// Object types carried by the events above.
const (
	ObjectCardState    = "card_state"
	ObjectHistoryEntry = "history.entry"
)

// HistoryEventInput describes the history entry an event refers to.
type HistoryEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	EntryID    string
	Label      string
	Cursor     int
	Length     int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildCardStateUpdatedEvent constructs the event raised when navigation
// changes the card state.
func BuildCardStateUpdatedEvent(input HistoryEventInput) Event {
	return buildHistoryEvent(VerbCardStateUpdated, ObjectCardState, input)
}

// BuildHistoryRecordedEvent constructs the event raised for a new entry.
func BuildHistoryRecordedEvent(input HistoryEventInput) Event {
	return buildHistoryEvent(VerbHistoryRecorded, ObjectHistoryEntry, input)
}

// BuildHistoryUndoneEvent constructs the event raised after an undo.
func BuildHistoryUndoneEvent(input HistoryEventInput) Event {
	return buildHistoryEvent(VerbHistoryUndone, ObjectHistoryEntry, input)
}

// BuildHistoryRedoneEvent constructs the event raised after a redo.
func BuildHistoryRedoneEvent(input HistoryEventInput) Event {
	return buildHistoryEvent(VerbHistoryRedone, ObjectHistoryEntry, input)
}

func buildHistoryEvent(verb, objectType string, input HistoryEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["label"] = input.Label
	metadata["cursor"] = input.Cursor
	metadata["length"] = input.Length

	objectID := strings.TrimSpace(input.EntryID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Label)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
