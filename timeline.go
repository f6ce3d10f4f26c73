package undo

import (
	"encoding/json"
	"time"
)

// Timeline is a serialisable view of a history without the snapshots, used
// for diagnostics and CLI output.
type Timeline struct {
	Cursor  int             `json:"cursor"`
	Entries []TimelineEntry `json:"entries"`
}

// TimelineEntry describes one recorded entry.
type TimelineEntry struct {
	Index      int       `json:"index"`
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	RecordedAt time.Time `json:"recorded_at"`
	Current    bool      `json:"current,omitempty"`
}

// Timeline returns the current shape of the history.
func (h *History[S]) Timeline() Timeline {
	timeline := Timeline{
		Cursor:  h.cursor,
		Entries: make([]TimelineEntry, len(h.entries)),
	}
	for i, entry := range h.entries {
		timeline.Entries[i] = TimelineEntry{
			Index:      i,
			ID:         entry.ID,
			Label:      entry.Label,
			RecordedAt: entry.RecordedAt,
			Current:    i == h.cursor,
		}
	}
	return timeline
}

// Labels returns the entry labels in order.
func (t Timeline) Labels() []string {
	labels := make([]string, len(t.Entries))
	for i, entry := range t.Entries {
		labels[i] = entry.Label
	}
	return labels
}

// ToJSON serialises the timeline.
func (t Timeline) ToJSON() ([]byte, error) {
	type alias Timeline
	return json.Marshal(alias(t))
}

// TimelineFromJSON deserialises a payload produced by ToJSON.
func TimelineFromJSON(payload []byte) (Timeline, error) {
	type alias Timeline
	var timeline alias
	if err := json.Unmarshal(payload, &timeline); err != nil {
		return Timeline{}, err
	}
	return Timeline(timeline), nil
}
