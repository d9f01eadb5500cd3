package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cognalign/tomsteer/internal/evaluator"
)

const defaultToMBenchPath = "data/benchmarks/tombench.jsonl"

// ToMBenchDataset is the ToMBench benchmark: four-choice (A-D) questions
// spanning several theory-of-mind abilities.
type ToMBenchDataset struct {
	SampleSize int
}

type tombenchRow struct {
	ID       string   `json:"id,omitempty"`
	Story    string   `json:"story"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   any      `json:"answer"`
	Ability  string   `json:"ability,omitempty"`
}

func (d *ToMBenchDataset) Name() string { return "tombench" }

func (d *ToMBenchDataset) Description() string {
	return "ToMBench four-choice theory-of-mind ability benchmark"
}

func (d *ToMBenchDataset) Load(ctx context.Context) ([]Item, error) {
	if ctx == nil {
		return nil, errors.New("tombench: nil context")
	}

	path := strings.TrimSpace(os.Getenv("TOMSTEER_TOMBENCH_PATH"))
	if path == "" {
		path = defaultToMBenchPath
	}

	rows, err := readJSONL[tombenchRow](ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return takeFirstN(defaultToMBenchSample(), d.SampleSize), nil
		}
		return nil, fmt.Errorf("tombench: load %q: %w", path, err)
	}

	out := make([]Item, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		story := strings.TrimSpace(row.Story)
		question := strings.TrimSpace(row.Question)
		choices := compactStrings(row.Choices)
		if story == "" || question == "" || len(choices) != 4 {
			continue
		}

		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = fmt.Sprintf("tombench-%d", i+1)
		}

		out = append(out, Item{
			ID:       id,
			Story:    story,
			Question: question,
			Choices:  choices,
			Answer:   evaluator.ChoiceExpected{Answer: row.Answer, Choices: choices},
			Category: strings.TrimSpace(row.Ability),
		})
	}

	out = takeFirstN(out, d.SampleSize)
	if len(out) == 0 {
		return takeFirstN(defaultToMBenchSample(), d.SampleSize), nil
	}
	return out, nil
}

func (d *ToMBenchDataset) Evaluate(ctx context.Context, response string, expected any) (*evaluator.Result, error) {
	return evaluator.ChoiceEvaluator{}.Evaluate(ctx, response, expected)
}

func defaultToMBenchSample() []Item {
	choices := []string{
		"She is pleased the surprise stayed secret",
		"She is upset the party was cancelled",
		"She believes the party is still on",
		"She forgot about the party entirely",
	}
	return []Item{
		{
			ID: "tombench-sample-1",
			Story: "Nina overheard her friends planning a party for her on Saturday. " +
				"On Friday the venue flooded and the friends cancelled, " +
				"but nobody told Nina about the cancellation.",
			Question: "What does Nina think about her Saturday evening?",
			Choices:  choices,
			Answer:   evaluator.ChoiceExpected{Answer: "C", Choices: choices},
			Category: "false_belief",
		},
	}
}
