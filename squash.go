package undo

import "strings"

// SquashContext is what a SquashRule sees when a new state is recorded.
// Previous is the label of the last entry left after redo-tail truncation.
type SquashContext struct {
	Label    string
	Previous string
	Cursor   int
	Length   int
}

func (c SquashContext) binding() map[string]any {
	return map[string]any{
		"label":    c.Label,
		"previous": c.Previous,
		"cursor":   c.Cursor,
		"length":   c.Length,
	}
}

// SquashRule decides whether the incoming recording replaces the last entry.
// Only the immediately preceding entry is ever considered.
type SquashRule interface {
	ShouldSquash(ctx SquashContext) (bool, error)
}

// SquashRuleFunc adapts a function to SquashRule.
type SquashRuleFunc func(ctx SquashContext) (bool, error)

// ShouldSquash implements SquashRule.
func (f SquashRuleFunc) ShouldSquash(ctx SquashContext) (bool, error) {
	if f == nil {
		return false, nil
	}
	return f(ctx)
}

// LabelSquash squashes consecutive recordings that carry the same label when
// that label is one of labels.
func LabelSquash(labels ...string) SquashRule {
	set := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		set[label] = struct{}{}
	}
	return SquashRuleFunc(func(ctx SquashContext) (bool, error) {
		if ctx.Label != ctx.Previous {
			return false, nil
		}
		_, ok := set[ctx.Label]
		return ok, nil
	})
}

// DefaultSquashRule merges back-to-back DefaultSquashLabel recordings so a
// burst of deletions is undone in one step.
func DefaultSquashRule() SquashRule {
	return LabelSquash(DefaultSquashLabel)
}

type neverSquash struct{}

func (neverSquash) ShouldSquash(SquashContext) (bool, error) { return false, nil }
