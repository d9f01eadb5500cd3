package llm

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey string, baseURL string, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = "gpt-4o"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: openai: nil request")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    normalizeOpenAIRole(m.Role),
			Content: m.Content,
		})
	}

	r := openai.ChatCompletionRequest{
		Model:       strings.TrimSpace(p.model),
		Messages:    msgs,
		MaxTokens:   clampMaxTokens(req.MaxTokens),
		Temperature: requestTemperature(req.Temperature),
	}

	resp, err := p.client.CreateChatCompletion(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: openai: empty choices")
	}

	choice := resp.Choices[0]
	out := &Response{
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}

	if strings.TrimSpace(choice.Message.Content) != "" {
		out.Content = append(out.Content, ContentBlock{
			Type: "text",
			Text: choice.Message.Content,
		})
	}

	return out, nil
}

func (p *OpenAIProvider) CompleteText(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	resp, err := p.Complete(ctx, req)
	latency := time.Since(start).Milliseconds()

	out := &Result{
		Response:  resp,
		LatencyMs: latency,
		Error:     err,
	}
	if resp == nil {
		if err != nil {
			return out, err
		}
		return out, errors.New("llm: openai: nil response")
	}

	out.InputTokens = resp.Usage.InputTokens
	out.OutputTokens = resp.Usage.OutputTokens
	out.TextContent = Text(resp)

	if err != nil {
		return out, err
	}
	return out, nil
}

func normalizeOpenAIRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleDeveloper:
		return role
	default:
		return openai.ChatMessageRoleUser
	}
}

// requestTemperature maps a requested temperature to the value sent on the
// wire. The SDK marks Temperature omitempty, so a literal 0 is dropped from
// the JSON body and the API falls back to its default. Substituting the
// smallest nonzero float32 keeps deterministic sampling while still
// marshaling the field.
func requestTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func clampMaxTokens(n int) int {
	if n <= 0 {
		return 0
	}
	return n
}
