package steering

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cognalign/tomsteer/internal/llm"
	"github.com/cognalign/tomsteer/internal/pairs"
)

// Extractor computes per-layer steering vectors from contrastive pairs as
// the mean difference of captured activations.
type Extractor struct {
	provider llm.ActivationCapturer
	layers   []int
	log      zerolog.Logger
}

// NewExtractor builds an extractor over an activation-capable provider.
func NewExtractor(provider llm.ActivationCapturer, layers []int, log zerolog.Logger) (*Extractor, error) {
	if provider == nil {
		return nil, fmt.Errorf("steering: nil provider")
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("steering: no layers selected")
	}
	return &Extractor{provider: provider, layers: layers, log: log}, nil
}

// Extract runs both sides of every pair through the model, keeps only pairs
// where the model answered both questions correctly, and returns per-layer
// mean(ToM) - mean(non-ToM) vectors.
func (e *Extractor) Extract(ctx context.Context, pairSet []pairs.Pair) (*VectorSet, error) {
	if e == nil {
		return nil, fmt.Errorf("steering: nil extractor")
	}
	if ctx == nil {
		return nil, fmt.Errorf("steering: nil context")
	}
	if len(pairSet) == 0 {
		return nil, fmt.Errorf("steering: no pairs to extract from")
	}

	tomActs := make(map[int][][]float32, len(e.layers))
	noTomActs := make(map[int][][]float32, len(e.layers))
	used := 0

	for i, pair := range pairSet {
		tomCap, err := e.capture(ctx, pair.ToM)
		if err != nil {
			return nil, fmt.Errorf("steering: pair %d tom side: %w", i, err)
		}
		noTomCap, err := e.capture(ctx, pair.NoToM)
		if err != nil {
			return nil, fmt.Errorf("steering: pair %d no_tom side: %w", i, err)
		}

		if !answersMatch(tomCap.TextContent, pair.ToM.Answer) || !answersMatch(noTomCap.TextContent, pair.NoToM.Answer) {
			e.log.Debug().Int("pair", i).
				Str("tom_answer", tomCap.TextContent).
				Str("no_tom_answer", noTomCap.TextContent).
				Msg("dropping pair with incorrect model answer")
			continue
		}

		for _, layer := range e.layers {
			tomActs[layer] = append(tomActs[layer], tomCap.Activations[layer])
			noTomActs[layer] = append(noTomActs[layer], noTomCap.Activations[layer])
		}
		used++

		if used%10 == 0 {
			e.log.Info().Int("used", used).Int("seen", i+1).Msg("extraction progress")
		}
	}

	if used == 0 {
		return nil, fmt.Errorf("steering: all %d pairs dropped, nothing to average", len(pairSet))
	}

	vectors := make(map[int][]float32, len(e.layers))
	dim := 0
	for _, layer := range e.layers {
		tomMean, err := mean(tomActs[layer])
		if err != nil {
			return nil, fmt.Errorf("steering: layer %d tom mean: %w", layer, err)
		}
		noTomMean, err := mean(noTomActs[layer])
		if err != nil {
			return nil, fmt.Errorf("steering: layer %d no_tom mean: %w", layer, err)
		}
		diff, err := sub(tomMean, noTomMean)
		if err != nil {
			return nil, fmt.Errorf("steering: layer %d: %w", layer, err)
		}
		vectors[layer] = diff
		dim = len(diff)
	}

	set := &VectorSet{
		Layers:    append([]int(nil), e.layers...),
		Dim:       dim,
		PairCount: len(pairSet),
		UsedPairs: used,
		CreatedAt: time.Now().UTC(),
		Vectors:   vectors,
	}
	if named, ok := e.provider.(llm.Provider); ok {
		set.Model = named.Name()
	}
	if set.IsZero() {
		e.log.Warn().Msg("extracted vectors are all zero")
	}
	return set, nil
}

func (e *Extractor) capture(ctx context.Context, ex pairs.Example) (*llm.Capture, error) {
	req := &llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: ex.Prompt()}},
		MaxTokens:   16,
		Temperature: 0,
	}
	captured, err := e.provider.CaptureActivations(ctx, req, e.layers)
	if err != nil {
		return nil, err
	}
	for _, layer := range e.layers {
		if len(captured.Activations[layer]) == 0 {
			return nil, fmt.Errorf("no activations for layer %d", layer)
		}
	}
	return captured, nil
}

// answersMatch compares a model response against the gold answer after
// normalization. Underscore and space variants of location names are
// treated as equal.
func answersMatch(response, gold string) bool {
	r := normalizeAnswer(response)
	g := normalizeAnswer(gold)
	if g == "" {
		return false
	}
	if r == g {
		return true
	}
	return strings.Contains(r, g)
}

func normalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.TrimRight(s, ".!?")
	return s
}
