package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ChoiceExpected carries a multiple-choice gold answer with its option texts.
type ChoiceExpected struct {
	Answer  any      `json:"answer"`
	Choices []string `json:"choices,omitempty"`
}

// ChoiceEvaluator scores multiple-choice responses. It accepts the gold
// answer as a letter, an index, or the full option text, and parses the
// response the same way.
type ChoiceEvaluator struct{}

// Name returns the evaluator identifier.
func (ChoiceEvaluator) Name() string {
	return "choice"
}

// Evaluate parses the model's chosen option and compares it to the gold
// index. An unparseable response is ambiguous, not an error.
func (ChoiceEvaluator) Evaluate(ctx context.Context, response string, expected any) (*Result, error) {
	exp, choices := unwrapChoiceExpected(expected)
	correctIdx, err := expectedChoiceIndex(exp, choices)
	if err != nil {
		return nil, err
	}

	gotIdx, ok := parseChoiceResponse(response, choices)
	if !ok {
		return ambiguous("could not parse model answer"), nil
	}
	if gotIdx == correctIdx {
		return pass("choice match"), nil
	}
	return fail(fmt.Sprintf("chose option %d, want %d", gotIdx, correctIdx)), nil
}

func unwrapChoiceExpected(expected any) (any, []string) {
	switch v := expected.(type) {
	case ChoiceExpected:
		return v.Answer, v.Choices
	case *ChoiceExpected:
		if v == nil {
			return nil, nil
		}
		return v.Answer, v.Choices
	default:
		return expected, nil
	}
}

func expectedChoiceIndex(answer any, choices []string) (int, error) {
	if len(choices) == 0 {
		choices = []string{"A", "B", "C", "D"}
	}
	max := len(choices)
	if max > 26 {
		max = 26
	}

	switch v := answer.(type) {
	case int:
		return normalizeIndex(v, max)
	case int64:
		return normalizeIndex(int(v), max)
	case float64:
		return normalizeIndex(int(v), max)
	case string:
		return parseExpectedString(v, choices, max)
	default:
		return -1, fmt.Errorf("choice: unsupported expected answer type %T", answer)
	}
}

func normalizeIndex(idx int, max int) (int, error) {
	switch {
	case idx >= 0 && idx < max:
		return idx, nil
	case idx >= 1 && idx <= max:
		return idx - 1, nil
	default:
		return -1, fmt.Errorf("choice: expected answer out of range (got %d, max %d)", idx, max)
	}
}

func parseExpectedString(s string, choices []string, max int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1, errors.New("choice: empty expected answer")
	}

	if len(s) == 1 {
		c := s[0]
		if c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		if c >= 'A' && c <= 'Z' {
			idx := int(c - 'A')
			if idx >= 0 && idx < max {
				return idx, nil
			}
		}
	}

	if n, err := strconv.Atoi(s); err == nil {
		return normalizeIndex(n, max)
	}

	needle := strings.ToLower(s)
	for i, c := range choices {
		if strings.ToLower(strings.TrimSpace(c)) == needle {
			if i < max {
				return i, nil
			}
		}
	}

	return -1, fmt.Errorf("choice: could not parse expected answer %q", s)
}

func parseChoiceResponse(response string, choices []string) (int, bool) {
	s := strings.TrimSpace(response)
	if s == "" {
		return -1, false
	}

	max := len(choices)
	if max <= 0 {
		max = 4
	}
	if max > 26 {
		max = 26
	}

	if idx, ok := extractLetterToken(s, max); ok {
		return idx, true
	}
	if idx, ok := extractNumberToken(s, max); ok {
		return idx, true
	}
	if idx, ok := matchChoiceText(s, choices, max); ok {
		return idx, true
	}
	return -1, false
}

func extractLetterToken(s string, max int) (int, bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		if c < 'A' || c > 'Z' {
			continue
		}
		idx := int(c - 'A')
		if idx < 0 || idx >= max {
			continue
		}

		prevOK := i == 0 || !isAlphaNum(s[i-1])
		nextOK := i+1 == len(s) || !isAlphaNum(s[i+1])
		if prevOK && nextOK {
			return idx, true
		}
	}
	return -1, false
}

func extractNumberToken(s string, max int) (int, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			continue
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		n, err := strconv.Atoi(s[i:j])
		if err != nil {
			continue
		}
		if n >= 1 && n <= max {
			return n - 1, true
		}
		if n >= 0 && n < max {
			return n, true
		}
		i = j - 1
	}
	return -1, false
}

func matchChoiceText(s string, choices []string, max int) (int, bool) {
	if len(choices) == 0 {
		return -1, false
	}
	ls := strings.ToLower(s)
	for i, c := range choices {
		if i >= max {
			return -1, false
		}
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if strings.Contains(ls, c) {
			return i, true
		}
	}
	return -1, false
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
