package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cognalign/tomsteer/internal/evaluator"
	"github.com/cognalign/tomsteer/internal/llm"
)

const defaultFANToMPath = "data/benchmarks/fantom.jsonl"

// FANToMDataset is the FANToM conversation benchmark. Free-text belief
// questions are scored by an LLM judge; list-type questions by choice match.
type FANToMDataset struct {
	SampleSize int
	Judge      llm.Provider
}

type fantomRow struct {
	ID           string   `json:"id,omitempty"`
	Context      string   `json:"context"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	QuestionType string   `json:"question_type,omitempty"`
	Choices      []string `json:"choices,omitempty"`
}

func (d *FANToMDataset) Name() string { return "fantom" }

func (d *FANToMDataset) Description() string {
	return "FANToM multiparty-conversation theory-of-mind benchmark"
}

func (d *FANToMDataset) Load(ctx context.Context) ([]Item, error) {
	if ctx == nil {
		return nil, errors.New("fantom: nil context")
	}

	path := strings.TrimSpace(os.Getenv("TOMSTEER_FANTOM_PATH"))
	if path == "" {
		path = defaultFANToMPath
	}

	rows, err := readJSONL[fantomRow](ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return takeFirstN(defaultFANToMSample(), d.SampleSize), nil
		}
		return nil, fmt.Errorf("fantom: load %q: %w", path, err)
	}

	out := make([]Item, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		story := strings.TrimSpace(row.Context)
		question := strings.TrimSpace(row.Question)
		answer := strings.TrimSpace(row.Answer)
		if story == "" || question == "" || answer == "" {
			continue
		}

		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = fmt.Sprintf("fantom-%d", i+1)
		}

		choices := compactStrings(row.Choices)
		var expected any
		if len(choices) > 0 {
			expected = evaluator.ChoiceExpected{Answer: answer, Choices: choices}
		} else {
			expected = evaluator.JudgeExpected{Answer: answer, Question: question}
		}

		out = append(out, Item{
			ID:       id,
			Story:    story,
			Question: question,
			Choices:  choices,
			Answer:   expected,
			Category: strings.TrimSpace(row.QuestionType),
		})
	}

	out = takeFirstN(out, d.SampleSize)
	if len(out) == 0 {
		return takeFirstN(defaultFANToMSample(), d.SampleSize), nil
	}
	return out, nil
}

// Evaluate dispatches on the expected answer shape: choice questions score
// by option match, free-text belief questions go to the judge.
func (d *FANToMDataset) Evaluate(ctx context.Context, response string, expected any) (*evaluator.Result, error) {
	switch expected.(type) {
	case evaluator.ChoiceExpected, *evaluator.ChoiceExpected:
		return evaluator.ChoiceEvaluator{}.Evaluate(ctx, response, expected)
	default:
		judge := &evaluator.BeliefJudgeEvaluator{Provider: d.Judge}
		return judge.Evaluate(ctx, response, expected)
	}
}

func defaultFANToMSample() []Item {
	conversation := "Linda: Did you hear the community garden got approved?\n" +
		"David: Yes! I already signed up for a plot.\n" +
		"[Linda leaves the conversation]\n" +
		"David: They moved the signup deadline to Friday.\n" +
		"Sara: Good to know, I'll tell the neighbors."

	return []Item{
		{
			ID:       "fantom-sample-1",
			Story:    conversation,
			Question: "What does Linda believe about the signup deadline?",
			Answer: evaluator.JudgeExpected{
				Answer:   "Linda does not know the deadline was moved to Friday.",
				Question: "What does Linda believe about the signup deadline?",
			},
			Category: "belief:gen",
		},
		{
			ID:       "fantom-sample-2",
			Story:    conversation,
			Question: "Does Linda know the signup deadline was moved?",
			Choices:  []string{"yes", "no"},
			Answer: evaluator.ChoiceExpected{
				Answer:  "no",
				Choices: []string{"yes", "no"},
			},
			Category: "answerability:list",
		},
	}
}
