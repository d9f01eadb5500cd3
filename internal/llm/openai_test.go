package llm

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newOpenAITestServer(t *testing.T, content string) (*OpenAIProvider, chan map[string]any) {
	t.Helper()

	reqCh := make(chan map[string]any, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		reqCh <- got

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{
				"prompt_tokens":     4,
				"completion_tokens": 2,
				"total_tokens":      6,
			},
		})
	}))
	t.Cleanup(srv.Close)

	return NewOpenAIProvider("test-key", srv.URL, "gpt-4o"), reqCh
}

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Parallel()

	p, reqCh := newOpenAITestServer(t, "the box")

	resp, err := p.Complete(context.Background(), &Request{
		System:      "Answer briefly.",
		Messages:    []Message{{Role: "user", Content: "Where is the ball?"}},
		MaxTokens:   32,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if Text(resp) != "the box" {
		t.Fatalf("text: got %q", Text(resp))
	}
	if resp.Usage.InputTokens != 4 || resp.Usage.OutputTokens != 2 {
		t.Fatalf("usage: got %+v", resp.Usage)
	}

	got := <-reqCh
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages: got %d want 2 (system + user)", len(msgs))
	}
	temp, _ := got["temperature"].(float64)
	if math.Abs(temp-0.7) > 1e-6 {
		t.Fatalf("temperature: got %v want 0.7", got["temperature"])
	}
}

func TestOpenAIProvider_SendsZeroTemperature(t *testing.T) {
	t.Parallel()

	p, reqCh := newOpenAITestServer(t, "the box")

	_, err := p.Complete(context.Background(), &Request{
		Messages:    []Message{{Role: "user", Content: "Where is the ball?"}},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got := <-reqCh
	temp, ok := got["temperature"].(float64)
	if !ok {
		t.Fatalf("temperature missing from request body: %v", got)
	}
	if temp <= 0 || temp > 1e-6 {
		t.Fatalf("temperature: got %v want the smallest nonzero float32", temp)
	}
}

func TestRequestTemperature(t *testing.T) {
	t.Parallel()

	if got := requestTemperature(0); got != math.SmallestNonzeroFloat32 {
		t.Fatalf("requestTemperature(0): got %v", got)
	}
	if got := requestTemperature(0.7); got != float32(0.7) {
		t.Fatalf("requestTemperature(0.7): got %v", got)
	}
}
