package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cognalign/tomsteer/internal/evaluator"
)

const defaultToMiPath = "data/benchmarks/tomi.jsonl"

// ToMiDataset is the ToMi false-belief benchmark. Answers are single-word
// locations.
type ToMiDataset struct {
	SampleSize int
}

type tomiRow struct {
	ID           string `json:"id,omitempty"`
	Story        string `json:"story"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	QuestionType string `json:"question_type,omitempty"`
}

func (d *ToMiDataset) Name() string { return "tomi" }

func (d *ToMiDataset) Description() string {
	return "ToMi false-belief stories with single-word location answers"
}

func (d *ToMiDataset) Load(ctx context.Context) ([]Item, error) {
	if ctx == nil {
		return nil, errors.New("tomi: nil context")
	}

	path := strings.TrimSpace(os.Getenv("TOMSTEER_TOMI_PATH"))
	if path == "" {
		path = defaultToMiPath
	}

	rows, err := readJSONL[tomiRow](ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return takeFirstN(defaultToMiSample(), d.SampleSize), nil
		}
		return nil, fmt.Errorf("tomi: load %q: %w", path, err)
	}

	out := make([]Item, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		story := strings.TrimSpace(row.Story)
		question := strings.TrimSpace(row.Question)
		answer := strings.TrimSpace(row.Answer)
		if story == "" || question == "" || answer == "" {
			continue
		}

		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = fmt.Sprintf("tomi-%d", i+1)
		}

		out = append(out, Item{
			ID:       id,
			Story:    story,
			Question: question,
			Answer:   answer,
			Category: strings.TrimSpace(row.QuestionType),
		})
	}

	out = takeFirstN(out, d.SampleSize)
	if len(out) == 0 {
		return takeFirstN(defaultToMiSample(), d.SampleSize), nil
	}
	return out, nil
}

func (d *ToMiDataset) Evaluate(ctx context.Context, response string, expected any) (*evaluator.Result, error) {
	return evaluator.LocationEvaluator{}.Evaluate(ctx, response, expected)
}

func defaultToMiSample() []Item {
	return []Item{
		{
			ID: "tomi-sample-1",
			Story: "1 Anne entered the kitchen.\n2 Sally entered the kitchen.\n" +
				"3 The apple is in the basket.\n4 Sally exited the kitchen.\n" +
				"5 Anne moved the apple to the box.",
			Question: "Where will Sally look for the apple?",
			Answer:   "basket",
			Category: "first_order_0_tom",
		},
		{
			ID: "tomi-sample-2",
			Story: "1 Mark entered the garage.\n2 Lucy entered the garage.\n" +
				"3 The wrench is in the toolbox.\n4 Lucy exited the garage.\n" +
				"5 Mark moved the wrench to the drawer.",
			Question: "Where is the wrench really?",
			Answer:   "drawer",
			Category: "reality",
		},
		{
			ID: "tomi-sample-3",
			Story: "1 Emma entered the study.\n2 Noah entered the study.\n" +
				"3 The letter is in the envelope.\n4 Noah exited the study.\n" +
				"5 Emma moved the letter to the folder.",
			Question: "Where was the letter at the beginning?",
			Answer:   "envelope",
			Category: "memory",
		},
	}
}
