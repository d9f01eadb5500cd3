package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cognalign/tomsteer/internal/steerapi"
)

// SteerProvider runs completions against a local activation-capable
// inference server. It is the only provider that supports activation capture
// and steered generation.
type SteerProvider struct {
	client *steerapi.Client
}

func NewSteerProvider(baseURL string, model string) *SteerProvider {
	opts := make([]steerapi.Option, 0, 1)
	if v := strings.TrimSpace(model); v != "" {
		opts = append(opts, steerapi.WithModel(v))
	}
	return &SteerProvider{
		client: steerapi.NewClient(baseURL, opts...),
	}
}

// NewSteerProviderWithClient wraps an existing client, used by tests.
func NewSteerProviderWithClient(client *steerapi.Client) *SteerProvider {
	return &SteerProvider{client: client}
}

func (p *SteerProvider) Name() string {
	return "steer"
}

func (p *SteerProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	res, err := p.CompleteText(ctx, req)
	if res == nil {
		return nil, err
	}
	return res.Response, err
}

func (p *SteerProvider) CompleteText(ctx context.Context, req *Request) (*Result, error) {
	res, _, err := p.generate(ctx, req, nil, nil, 0)
	return res, err
}

// CompleteSteered adds strength-scaled vectors to the given layers during
// the forward pass. A nil/empty vector map or zero strength degrades to a
// plain completion with no steering payload on the wire.
func (p *SteerProvider) CompleteSteered(ctx context.Context, req *Request, vectors map[int][]float32, strength float64) (*Result, error) {
	if len(vectors) == 0 || strength == 0 {
		return p.CompleteText(ctx, req)
	}
	res, _, err := p.generate(ctx, req, nil, vectors, strength)
	return res, err
}

// CaptureActivations runs a forward pass and returns per-layer activation
// vectors at the final prompt token.
func (p *SteerProvider) CaptureActivations(ctx context.Context, req *Request, layers []int) (*Capture, error) {
	if len(layers) == 0 {
		return nil, errors.New("llm: steer: no capture layers")
	}

	res, acts, err := p.generate(ctx, req, layers, nil, 0)
	if res == nil {
		return nil, err
	}

	out := &Capture{Result: *res, Activations: acts}
	if err != nil {
		return out, err
	}
	if len(out.Activations) == 0 {
		return out, errors.New("llm: steer: backend returned no activations")
	}
	return out, nil
}

func (p *SteerProvider) generate(ctx context.Context, req *Request, layers []int, vectors map[int][]float32, strength float64) (*Result, map[int][]float32, error) {
	if p == nil || p.client == nil {
		return nil, nil, errors.New("llm: steer: nil client")
	}
	if ctx == nil {
		return nil, nil, errors.New("llm: steer: nil context")
	}
	if req == nil {
		return nil, nil, errors.New("llm: steer: nil request")
	}

	gReq := &steerapi.GenerateRequest{
		Prompt:        flattenMessages(req.Messages),
		System:        strings.TrimSpace(req.System),
		CaptureLayers: layers,
		Options: &steerapi.Options{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	if len(vectors) > 0 && strength != 0 {
		gReq.Steering = &steerapi.Steering{
			Vectors:  vectors,
			Strength: strength,
		}
	}

	start := time.Now()
	gResp, err := p.client.Generate(ctx, gReq)
	latency := time.Since(start).Milliseconds()

	out := &Result{
		LatencyMs: latency,
		Error:     err,
	}
	if gResp == nil {
		if err != nil {
			return out, nil, err
		}
		return out, nil, errors.New("llm: steer: nil response")
	}

	out.Response = &Response{
		Content: []ContentBlock{{Type: "text", Text: gResp.Response}},
		Usage: Usage{
			InputTokens:  gResp.PromptEvalCount,
			OutputTokens: gResp.EvalCount,
		},
	}
	out.TextContent = gResp.Response
	out.InputTokens = gResp.PromptEvalCount
	out.OutputTokens = gResp.EvalCount

	if err != nil {
		return out, gResp.Activations, err
	}
	return out, gResp.Activations, nil
}

func flattenMessages(msgs []Message) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}
