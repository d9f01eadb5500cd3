package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/cognalign/tomsteer/internal/llm"
)

// BeliefJudgeEvaluator scores free-text belief answers with an LLM judge.
// The judge decides whether the response expresses the same belief state as
// the reference answer.
type BeliefJudgeEvaluator struct {
	Provider llm.Provider
}

// Name returns the evaluator identifier.
func (*BeliefJudgeEvaluator) Name() string {
	return "belief_judge"
}

const beliefJudgePromptTemplate = `You are grading answers about what a character believes.

## Question
{{.Question}}

## Reference Answer
{{.Reference}}

## Candidate Answer
{{.Response}}

## Instructions
Decide whether the candidate answer expresses the same belief state as the
reference answer. Surface wording may differ; only the belief content matters.

Output ONLY valid JSON in this exact format:
{"match": <true or false>, "reasoning": "<brief explanation>"}`

var beliefJudgePromptTmpl = template.Must(template.New("belief_judge").Parse(beliefJudgePromptTemplate))

type beliefJudgePromptData struct {
	Question  string
	Reference string
	Response  string
}

type beliefJudgeOutput struct {
	Match     bool   `json:"match"`
	Reasoning string `json:"reasoning"`
}

// JudgeExpected carries the reference answer and, optionally, the question
// the candidate was answering.
type JudgeExpected struct {
	Answer   string `json:"answer"`
	Question string `json:"question,omitempty"`
}

// Evaluate asks the judge provider for a binary match verdict. Unparseable
// judge output is ambiguous, not an error.
func (e *BeliefJudgeEvaluator) Evaluate(ctx context.Context, response string, expected any) (*Result, error) {
	if e == nil {
		return nil, errors.New("belief_judge: nil evaluator")
	}
	if e.Provider == nil {
		return nil, errors.New("belief_judge: nil llm provider")
	}

	var reference, question string
	switch v := expected.(type) {
	case string:
		reference = v
	case JudgeExpected:
		reference = v.Answer
		question = v.Question
	case *JudgeExpected:
		if v != nil {
			reference = v.Answer
			question = v.Question
		}
	default:
		return nil, fmt.Errorf("belief_judge: expected string or JudgeExpected, got %T", expected)
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.New("belief_judge: empty reference answer")
	}

	var promptBuf bytes.Buffer
	if err := beliefJudgePromptTmpl.Execute(&promptBuf, beliefJudgePromptData{
		Question:  question,
		Reference: reference,
		Response:  response,
	}); err != nil {
		return nil, fmt.Errorf("belief_judge: render prompt: %w", err)
	}

	resp, err := e.Provider.Complete(ctx, &llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: promptBuf.String()}},
		MaxTokens: 512,
	})
	if err != nil {
		return nil, fmt.Errorf("belief_judge: llm: %w", err)
	}
	if resp == nil {
		return nil, errors.New("belief_judge: nil llm response")
	}

	raw := strings.TrimSpace(llm.Text(resp))
	var out beliefJudgeOutput
	if err := llm.ParseJSON(raw, &out); err != nil {
		r := ambiguous("invalid judge output")
		r.Details = map[string]any{
			"error":  err.Error(),
			"output": raw,
		}
		return r, nil
	}

	reasoning := strings.TrimSpace(out.Reasoning)
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}
	if out.Match {
		return pass(reasoning), nil
	}
	return fail(reasoning), nil
}
