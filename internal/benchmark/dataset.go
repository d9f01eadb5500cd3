package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognalign/tomsteer/internal/evaluator"
	"github.com/cognalign/tomsteer/internal/llm"
)

// Dataset is a theory-of-mind benchmark: it loads items and scores
// responses with its own rule.
type Dataset interface {
	Name() string
	Description() string
	Load(ctx context.Context) ([]Item, error)
	Evaluate(ctx context.Context, response string, expected any) (*evaluator.Result, error)
}

// Item is one benchmark question.
type Item struct {
	ID       string
	Story    string
	Question string
	Choices  []string
	Answer   any
	Category string
}

// FromName builds the named dataset. FANToM requires a judge provider for
// its free-text questions.
func FromName(name string, sampleSize int, judge llm.Provider) (Dataset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tomi":
		return &ToMiDataset{SampleSize: sampleSize}, nil
	case "fantom":
		if judge == nil {
			return nil, fmt.Errorf("benchmark: fantom requires a judge provider")
		}
		return &FANToMDataset{SampleSize: sampleSize, Judge: judge}, nil
	case "simpletom":
		return &SimpleToMDataset{SampleSize: sampleSize}, nil
	case "tombench":
		return &ToMBenchDataset{SampleSize: sampleSize}, nil
	default:
		return nil, fmt.Errorf("benchmark: unknown benchmark %q", name)
	}
}

// Names lists the supported benchmarks.
func Names() []string {
	return []string{"tomi", "fantom", "simpletom", "tombench"}
}
