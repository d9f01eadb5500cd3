package evaluator

import (
	"context"
	"fmt"
	"strings"
)

// LocationEvaluator checks single-word location answers. Underscore and
// space variants of a location name count as the same answer.
type LocationEvaluator struct{}

// Name returns the evaluator identifier.
func (LocationEvaluator) Name() string {
	return "location"
}

// Evaluate compares a response to the expected location string.
func (LocationEvaluator) Evaluate(ctx context.Context, response string, expected any) (*Result, error) {
	exp, ok := expected.(string)
	if !ok {
		return nil, fmt.Errorf("location: expected string, got %T", expected)
	}

	gold := normalizeLocation(exp)
	if gold == "" {
		return nil, fmt.Errorf("location: empty expected answer")
	}

	got := normalizeLocation(response)
	if got == "" {
		return ambiguous("empty response"), nil
	}
	if got == gold || strings.Contains(got, gold) {
		return pass("location match"), nil
	}
	return fail("location mismatch"), nil
}

func normalizeLocation(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.TrimRight(s, ".!?")
	return strings.TrimSpace(s)
}
