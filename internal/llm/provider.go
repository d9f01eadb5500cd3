package llm

import "context"

// Provider is a model backend capable of plain text completion.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
	CompleteText(ctx context.Context, req *Request) (*Result, error)
}

// ActivationCapturer is an optional interface for providers that can return
// internal activation snapshots alongside a completion.
type ActivationCapturer interface {
	CaptureActivations(ctx context.Context, req *Request, layers []int) (*Capture, error)
}

// Steerer is an optional interface for providers that can add scaled
// direction vectors to selected layers during the forward pass.
type Steerer interface {
	CompleteSteered(ctx context.Context, req *Request, vectors map[int][]float32, strength float64) (*Result, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages    []Message
	System      string
	MaxTokens   int
	Temperature float64
}

type ContentBlock struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Response struct {
	Content    []ContentBlock
	Usage      Usage
	StopReason string
}

// Result bundles a completion with its text, latency, and token counts.
type Result struct {
	Response     *Response
	TextContent  string
	LatencyMs    int64
	InputTokens  int
	OutputTokens int
	Error        error
}

// Capture extends Result with per-layer activation vectors taken at the
// final prompt token.
type Capture struct {
	Result
	Activations map[int][]float32
}
