// Package usersink forwards card workspace activity to a go-users
// ActivitySink so undo/redo history shows up in the user activity feed.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-undo/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink. ActorID and
// TenantID fill in events that carry no identity of their own, which is the
// case for everything raised by the history engine.
type Hook struct {
	Sink     usertypes.ActivitySink
	ActorID  string
	TenantID string
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	actorID := firstNonEmpty(normalized.ActorID, h.ActorID)
	userID := firstNonEmpty(normalized.UserID, actorID)
	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(actorID),
		UserID:     parseUUID(userID),
		TenantID:   parseUUID(firstNonEmpty(normalized.TenantID, h.TenantID)),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       recordData(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}

	return h.Sink.Log(ctx, record)
}

// recordData copies metadata, renaming the history keys so they do not clash
// with fields other producers put in the same feed.
func recordData(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return nil
	}
	data := make(map[string]any, len(metadata))
	for key, value := range metadata {
		switch key {
		case "label", "cursor", "length":
			data["history_"+key] = value
		default:
			data[key] = value
		}
	}
	return data
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
