package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/cognalign/tomsteer/internal/claude"
)

type ClaudeProvider struct {
	client *claude.Client
}

func NewClaudeProvider(apiKey string, baseURL string, model string) *ClaudeProvider {
	opts := make([]claude.Option, 0, 2)
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, claude.WithBaseURL(v))
	}
	if v := strings.TrimSpace(model); v != "" {
		opts = append(opts, claude.WithModel(v))
	}
	return &ClaudeProvider{
		client: claude.NewClient(strings.TrimSpace(apiKey), opts...),
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

func (p *ClaudeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: claude: nil client")
	}
	cReq, err := toClaudeRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Complete(ctx, cReq)
	return fromClaudeResponse(resp), err
}

func (p *ClaudeProvider) CompleteText(ctx context.Context, req *Request) (*Result, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: claude: nil client")
	}
	cReq, err := toClaudeRequest(req)
	if err != nil {
		return nil, err
	}
	res, err := p.client.CompleteText(ctx, cReq)
	return fromClaudeCompletion(res), err
}

func toClaudeRequest(req *Request) (*claude.Request, error) {
	if req == nil {
		return nil, errors.New("llm: claude: nil request")
	}

	msgs := make([]claude.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, claude.Message{
			Role:    role,
			Content: m.Content,
		})
	}

	return &claude.Request{
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Temperature: req.Temperature,
	}, nil
}

func fromClaudeResponse(resp *claude.Response) *Response {
	if resp == nil {
		return nil
	}

	out := &Response{
		StopReason: resp.StopReason,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}

	if len(resp.Content) == 0 {
		return out
	}

	out.Content = make([]ContentBlock, 0, len(resp.Content))
	for _, b := range resp.Content {
		if b.Type != "text" {
			continue
		}
		out.Content = append(out.Content, ContentBlock{
			Type: "text",
			Text: b.Text,
		})
	}

	return out
}

func fromClaudeCompletion(res *claude.Completion) *Result {
	if res == nil {
		return nil
	}

	return &Result{
		Response:     fromClaudeResponse(res.Response),
		TextContent:  res.TextContent,
		LatencyMs:    res.LatencyMs,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		Error:        res.Error,
	}
}
