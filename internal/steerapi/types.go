package steerapi

import "net/http"

// Client talks to a local activation-capable inference server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Options are generation options forwarded to the backend.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	Seed        int     `json:"seed,omitempty"`
}

// Steering carries per-layer direction vectors added to the residual stream
// during the forward pass, scaled by Strength.
type Steering struct {
	Vectors  map[int][]float32 `json:"vectors"`
	Strength float64           `json:"strength"`
}

// GenerateRequest is the /api/generate payload. CaptureLayers and Steering
// are extensions understood by instrumented backends; both are optional.
type GenerateRequest struct {
	Model         string    `json:"model"`
	Prompt        string    `json:"prompt"`
	System        string    `json:"system,omitempty"`
	Stream        bool      `json:"stream"`
	Options       *Options  `json:"options,omitempty"`
	CaptureLayers []int     `json:"capture_layers,omitempty"`
	Steering      *Steering `json:"steering,omitempty"`
}

// GenerateResponse is the non-streaming /api/generate reply. Activations maps
// a captured layer index to the residual-stream vector at the final prompt
// token.
type GenerateResponse struct {
	Model           string            `json:"model"`
	Response        string            `json:"response"`
	Done            bool              `json:"done"`
	Activations     map[int][]float32 `json:"activations,omitempty"`
	PromptEvalCount int               `json:"prompt_eval_count"`
	EvalCount       int               `json:"eval_count"`
	TotalDuration   int64             `json:"total_duration"`
}
