package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cognalign/tomsteer/internal/evaluator"
)

const defaultSimpleToMPath = "data/benchmarks/simpletom.jsonl"

// SimpleToMDataset is the SimpleToM benchmark: short everyday stories with a
// two-choice (a/b) question.
type SimpleToMDataset struct {
	SampleSize int
}

type simpletomRow struct {
	ID       string   `json:"id,omitempty"`
	Story    string   `json:"story"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   any      `json:"answer"`
	Category string   `json:"category,omitempty"`
}

func (d *SimpleToMDataset) Name() string { return "simpletom" }

func (d *SimpleToMDataset) Description() string {
	return "SimpleToM two-choice mental-state questions about everyday stories"
}

func (d *SimpleToMDataset) Load(ctx context.Context) ([]Item, error) {
	if ctx == nil {
		return nil, errors.New("simpletom: nil context")
	}

	path := strings.TrimSpace(os.Getenv("TOMSTEER_SIMPLETOM_PATH"))
	if path == "" {
		path = defaultSimpleToMPath
	}

	rows, err := readJSONL[simpletomRow](ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return takeFirstN(defaultSimpleToMSample(), d.SampleSize), nil
		}
		return nil, fmt.Errorf("simpletom: load %q: %w", path, err)
	}

	out := make([]Item, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		story := strings.TrimSpace(row.Story)
		question := strings.TrimSpace(row.Question)
		choices := compactStrings(row.Choices)
		if story == "" || question == "" || len(choices) != 2 {
			continue
		}

		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = fmt.Sprintf("simpletom-%d", i+1)
		}

		out = append(out, Item{
			ID:       id,
			Story:    story,
			Question: question,
			Choices:  choices,
			Answer:   evaluator.ChoiceExpected{Answer: row.Answer, Choices: choices},
			Category: strings.TrimSpace(row.Category),
		})
	}

	out = takeFirstN(out, d.SampleSize)
	if len(out) == 0 {
		return takeFirstN(defaultSimpleToMSample(), d.SampleSize), nil
	}
	return out, nil
}

func (d *SimpleToMDataset) Evaluate(ctx context.Context, response string, expected any) (*evaluator.Result, error) {
	return evaluator.ChoiceEvaluator{}.Evaluate(ctx, response, expected)
}

func defaultSimpleToMSample() []Item {
	choices1 := []string{
		"Maya thinks the milk is fresh",
		"Maya thinks the milk is spoiled",
	}
	choices2 := []string{
		"Tom will board the train on platform 2",
		"Tom will wait on platform 5",
	}
	return []Item{
		{
			ID: "simpletom-sample-1",
			Story: "Maya grabs a carton of milk from the back of the fridge. " +
				"The milk expired a week ago, but the carton has no visible spoilage.",
			Question: "What does Maya most likely think about the milk?",
			Choices:  choices1,
			Answer:   evaluator.ChoiceExpected{Answer: "a", Choices: choices1},
			Category: "mental_state",
		},
		{
			ID: "simpletom-sample-2",
			Story: "Tom's ticket says his train leaves from platform 5. " +
				"After he entered the station, the departure board switched the train to platform 2, " +
				"but Tom has not looked at the board.",
			Question: "What will Tom most likely do?",
			Choices:  choices2,
			Answer:   evaluator.ChoiceExpected{Answer: "b", Choices: choices2},
			Category: "behavior",
		},
	}
}
