// Package cards defines the card workspace state recorded by the history:
// the card being edited (CardState), the saved collection (CardLibrary) and
// user preferences, together with the mutations that change them.
//
// Copies and comparisons are explicit. Clone never shares maps or slices with
// its receiver, and Equal treats nil and empty collections alike so that two
// states that would encode to the same JSON compare equal.
package cards

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Card is one card record.
type Card struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Type            string            `json:"type,omitempty"`
	Faction         string            `json:"faction,omitempty"`
	Cost            int               `json:"cost"`
	Power           int               `json:"power"`
	Text            string            `json:"text,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	CustomImageData string            `json:"customImageData"`
}

// Clone returns a deep copy of c.
func (c Card) Clone() Card {
	out := c
	if c.Tags != nil {
		out.Tags = slices.Clone(c.Tags)
	}
	if c.Attributes != nil {
		out.Attributes = make(map[string]string, len(c.Attributes))
		for key, value := range c.Attributes {
			out.Attributes[key] = value
		}
	}
	return out
}

// Equal reports whether c and other hold the same values.
func (c Card) Equal(other Card) bool {
	if c.ID != other.ID || c.Name != other.Name || c.Type != other.Type ||
		c.Faction != other.Faction || c.Cost != other.Cost || c.Power != other.Power ||
		c.Text != other.Text || c.CustomImageData != other.CustomImageData {
		return false
	}
	if !slices.Equal(c.Tags, other.Tags) {
		return false
	}
	if len(c.Attributes) != len(other.Attributes) {
		return false
	}
	for key, value := range c.Attributes {
		if otherValue, ok := other.Attributes[key]; !ok || otherValue != value {
			return false
		}
	}
	return true
}

// Set assigns one field by name. Recognised fields: name, type, faction,
// text, cost, power, image, tags (comma separated) and attr.<key>.
func (c *Card) Set(field, value string) error {
	field = strings.ToLower(strings.TrimSpace(field))
	switch field {
	case "name":
		c.Name = value
	case "type":
		c.Type = value
	case "faction":
		c.Faction = value
	case "text":
		c.Text = value
	case "image":
		c.CustomImageData = value
	case "cost", "power":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("cards: %s must be an integer: %w", field, err)
		}
		if field == "cost" {
			c.Cost = n
		} else {
			c.Power = n
		}
	case "tags":
		c.Tags = splitTags(value)
	default:
		key, ok := strings.CutPrefix(field, "attr.")
		if !ok || key == "" {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		if c.Attributes == nil {
			c.Attributes = map[string]string{}
		}
		if value == "" {
			delete(c.Attributes, key)
			return nil
		}
		c.Attributes[key] = value
	}
	return nil
}

func splitTags(value string) []string {
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// LibraryData maps card IDs to card records. It is the persisted subset of
// the workspace state.
type LibraryData map[string]Card

// Clone returns a deep copy of d.
func (d LibraryData) Clone() LibraryData {
	if d == nil {
		return nil
	}
	out := make(LibraryData, len(d))
	for id, card := range d {
		out[id] = card.Clone()
	}
	return out
}

// Equal reports whether d and other hold the same cards.
func (d LibraryData) Equal(other LibraryData) bool {
	if len(d) != len(other) {
		return false
	}
	for id, card := range d {
		otherCard, ok := other[id]
		if !ok || !card.Equal(otherCard) {
			return false
		}
	}
	return true
}

// Sanitized returns a copy with CustomImageData cleared on every card. Image
// payloads are never persisted.
func (d LibraryData) Sanitized() LibraryData {
	out := make(LibraryData, len(d))
	for id, card := range d {
		card = card.Clone()
		card.CustomImageData = ""
		out[id] = card
	}
	return out
}

// IDs returns the card IDs sorted alphabetically.
func (d LibraryData) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CardLibrary is the card collection substructure.
type CardLibrary struct {
	Data   LibraryData `json:"data"`
	Loaded bool        `json:"loaded"`
}

// Clone returns a deep copy of l.
func (l CardLibrary) Clone() CardLibrary {
	return CardLibrary{Data: l.Data.Clone(), Loaded: l.Loaded}
}

// Equal reports whether l and other are the same library.
func (l CardLibrary) Equal(other CardLibrary) bool {
	return l.Loaded == other.Loaded && l.Data.Equal(other.Data)
}

// CardState is the transient editing substructure: the card on the canvas
// and which library card, if any, it was opened from.
type CardState struct {
	Card       Card   `json:"card"`
	SelectedID string `json:"selectedId,omitempty"`
	Dirty      bool   `json:"dirty"`
}

// Clone returns a deep copy of s.
func (s CardState) Clone() CardState {
	return CardState{Card: s.Card.Clone(), SelectedID: s.SelectedID, Dirty: s.Dirty}
}

// Equal reports whether s and other are the same card state.
func (s CardState) Equal(other CardState) bool {
	return s.SelectedID == other.SelectedID && s.Dirty == other.Dirty && s.Card.Equal(other.Card)
}

// Preferences holds user settings. They are recorded in history but neither
// trigger events nor persistence on navigation.
type Preferences struct {
	Theme  string `json:"theme,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// AppState is the whole workspace state.
type AppState struct {
	CardState   CardState   `json:"cardState"`
	CardLibrary CardLibrary `json:"cardLibrary"`
	Preferences Preferences `json:"preferences"`
}

// Clone returns a deep copy of s.
func (s AppState) Clone() AppState {
	return AppState{
		CardState:   s.CardState.Clone(),
		CardLibrary: s.CardLibrary.Clone(),
		Preferences: s.Preferences,
	}
}
