package benchmark

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cognalign/tomsteer/internal/llm"
	"github.com/cognalign/tomsteer/internal/steering"
)

// Runner evaluates a dataset against a provider, optionally steering the
// forward pass with a vector set.
type Runner struct {
	Provider llm.Provider
	Vectors  *steering.VectorSet
	Strength float64
	Log      zerolog.Logger
}

// RunResult aggregates one evaluation run.
type RunResult struct {
	Model       string
	Benchmark   string
	Strength    float64
	Accuracy    float64
	Ambiguous   int
	TotalTime   time.Duration
	TotalTokens int
	Items       []ItemResult
}

// ItemResult records one scored item.
type ItemResult struct {
	ID        string
	Category  string
	Response  string
	Score     float64
	Passed    bool
	Ambiguous bool
	Latency   time.Duration
	Tokens    int
	Error     string
}

// Run loads the dataset and scores every item. Steering is applied only
// when a non-zero vector set and non-zero strength are both present; the
// baseline path sends plain completion requests.
func (r *Runner) Run(ctx context.Context, dataset Dataset) (*RunResult, error) {
	if r == nil {
		return nil, errors.New("benchmark: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("benchmark: nil context")
	}
	if r.Provider == nil {
		return nil, errors.New("benchmark: nil provider")
	}
	if dataset == nil {
		return nil, errors.New("benchmark: nil dataset")
	}

	steered := r.Vectors != nil && r.Strength != 0 && !r.Vectors.IsZero()
	var steerer llm.Steerer
	if steered {
		s, ok := r.Provider.(llm.Steerer)
		if !ok {
			return nil, fmt.Errorf("benchmark: provider %q cannot apply steering vectors", r.Provider.Name())
		}
		steerer = s
	}

	start := time.Now()

	items, err := dataset.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("benchmark: empty dataset")
	}

	out := &RunResult{
		Model:     strings.TrimSpace(r.Provider.Name()),
		Benchmark: strings.TrimSpace(dataset.Name()),
		Items:     make([]ItemResult, 0, len(items)),
	}
	if steered {
		out.Strength = r.Strength
	}

	var sumScore float64
	totalTokens := 0

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			r.finish(out, start, sumScore, totalTokens)
			return out, err
		}

		req := &llm.Request{
			Messages:    []llm.Message{{Role: "user", Content: formatPrompt(out.Benchmark, &item)}},
			MaxTokens:   512,
			Temperature: 0,
		}

		var res *llm.Result
		var callErr error
		if steered {
			res, callErr = steerer.CompleteSteered(ctx, req, r.Vectors.Vectors, r.Strength)
		} else {
			res, callErr = r.Provider.CompleteText(ctx, req)
		}

		ir := ItemResult{
			ID:       strings.TrimSpace(item.ID),
			Category: strings.TrimSpace(item.Category),
		}
		if res != nil {
			ir.Response = res.TextContent
			ir.Latency = time.Duration(res.LatencyMs) * time.Millisecond
			ir.Tokens = res.InputTokens + res.OutputTokens
			totalTokens += ir.Tokens
		}
		if callErr != nil {
			ir.Error = callErr.Error()
			out.Items = append(out.Items, ir)
			continue
		}

		score, evalErr := dataset.Evaluate(ctx, ir.Response, item.Answer)
		if evalErr != nil {
			ir.Error = evalErr.Error()
			out.Items = append(out.Items, ir)
			continue
		}

		ir.Score = score.Score
		ir.Passed = score.Passed
		ir.Ambiguous = score.Ambiguous
		if score.Ambiguous {
			out.Ambiguous++
		}
		sumScore += score.Score
		out.Items = append(out.Items, ir)

		if (i+1)%10 == 0 {
			r.Log.Info().
				Int("done", i+1).
				Int("total", len(items)).
				Float64("accuracy", safeAvg(sumScore, len(out.Items))).
				Msg("evaluation progress")
		}
	}

	r.finish(out, start, sumScore, totalTokens)
	return out, nil
}

func (r *Runner) finish(out *RunResult, start time.Time, sumScore float64, totalTokens int) {
	out.TotalTime = time.Since(start)
	out.TotalTokens = totalTokens
	out.Accuracy = safeAvg(sumScore, len(out.Items))
}

func safeAvg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sum / float64(n)
}

func formatPrompt(benchmark string, item *Item) string {
	if item == nil {
		return ""
	}

	switch strings.ToLower(strings.TrimSpace(benchmark)) {
	case "tomi":
		return strings.TrimSpace(item.Story) + "\n" + strings.TrimSpace(item.Question) +
			"\nAnswer with only the location.\n"
	case "fantom":
		if len(item.Choices) > 0 {
			return formatChoicePrompt(item.Story, item.Question, item.Choices)
		}
		return strings.TrimSpace(item.Story) + "\n\n" + strings.TrimSpace(item.Question) +
			"\nAnswer in one short sentence.\n"
	default:
		if len(item.Choices) > 0 {
			return formatChoicePrompt(item.Story, item.Question, item.Choices)
		}
		return strings.TrimSpace(item.Story) + "\n\n" + strings.TrimSpace(item.Question) + "\n"
	}
}

func formatChoicePrompt(story, question string, choices []string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(story))
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\n")

	for i, c := range choices {
		label := string(rune('A' + i))
		sb.WriteString(label)
		sb.WriteString(". ")
		sb.WriteString(strings.TrimSpace(c))
		sb.WriteByte('\n')
	}

	sb.WriteString("\nReply with just the letter (e.g., A).\n")
	return sb.String()
}
