package benchmark

import (
	"context"

	"github.com/cognalign/tomsteer/internal/llm"
)

type fakeJudgeProvider struct {
	reply string
	calls int
}

func (f *fakeJudgeProvider) Name() string { return "fake-judge" }

func (f *fakeJudgeProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.calls++
	return &llm.Response{
		Content: []llm.ContentBlock{{Type: "text", Text: f.reply}},
	}, nil
}

func (f *fakeJudgeProvider) CompleteText(ctx context.Context, req *llm.Request) (*llm.Result, error) {
	resp, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return &llm.Result{Response: resp, TextContent: llm.Text(resp)}, nil
}
