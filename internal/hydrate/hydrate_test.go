package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_payloads.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[library](buildOptions(tc)...)

			result, err := decoder.Decode(Context{Key: tc.Key, Source: "fixture"}, []byte(tc.Raw))

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded library mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecodeStringPayloadIsNotObject(t *testing.T) {
	_, err := NewDecoder[library]().Decode(Context{Key: "cardLibrary"}, []byte(`""`))
	if !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
}

func TestDecodeMapLeavesInputUntouched(t *testing.T) {
	payload := map[string]any{
		"c1": map[string]any{"name": "Ember"},
	}
	decoder := NewDecoder[library](WithPreHook[library](func(_ Context, in map[string]any) (map[string]any, error) {
		in["c1"].(map[string]any)["name"] = "changed"
		return in, nil
	}))

	result, err := decoder.DecodeMap(Context{Key: "cardLibrary"}, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["c1"].Name != "changed" {
		t.Fatalf("expected pre-hook to apply, got %+v", result)
	}
	if payload["c1"].(map[string]any)["name"] != "Ember" {
		t.Fatalf("expected caller payload untouched, got %+v", payload)
	}
}

func TestHookErrorsAreWrapped(t *testing.T) {
	boom := errors.New("boom")
	decoder := NewDecoder[library](WithPostHook[library](func(Context, *library) error { return boom }))
	_, err := decoder.Decode(Context{Key: "cardLibrary"}, []byte(`{}`))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped post-hook error, got %v", err)
	}
	if !strings.Contains(err.Error(), `post-hook for key "cardLibrary"`) {
		t.Fatalf("expected key in error, got %v", err)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[library] {
	options := []DecoderOption[library]{}

	for _, optName := range tc.Options {
		switch optName {
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[library]())
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "unwrap_cards":
			options = append(options, WithPreHook[library](unwrapCardsPreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "backfill_id":
			options = append(options, WithPostHook[library](backfillIDPostHook))
		}
	}

	return options
}

// unwrapCardsPreHook turns {"cards": [{...}]} into an object keyed by id.
func unwrapCardsPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	list, ok := payload["cards"].([]any)
	if !ok {
		return payload, nil
	}
	out := make(map[string]any, len(list))
	for i, item := range list {
		card, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("card %d is not an object", i)
		}
		id, _ := card["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("card %d has no id", i)
		}
		out[id] = card
	}
	return out, nil
}

func backfillIDPostHook(_ Context, value *library) error {
	if value == nil {
		return errors.New("library is nil")
	}
	for id, card := range *value {
		if card.ID == "" {
			card.ID = id
			(*value)[id] = card
		}
	}
	return nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name      string   `json:"name"`
	Key       string   `json:"key"`
	Raw       string   `json:"raw"`
	Expect    library  `json:"expect"`
	ExpectErr string   `json:"expectErr"`
	PreHooks  []string `json:"preHooks"`
	PostHooks []string `json:"postHooks"`
	Options   []string `json:"options"`
}

type library map[string]record

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
