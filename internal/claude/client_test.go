package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func messageResponse(id, model, stopReason string, blocks []map[string]any, inTok, outTok int) map[string]any {
	return map[string]any{
		"id":          id,
		"type":        "message",
		"role":        "assistant",
		"model":       model,
		"stop_reason": stopReason,
		"content":     blocks,
		"usage": map[string]any{
			"input_tokens":  inTok,
			"output_tokens": outTok,
		},
	}
}

func textBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

func TestComplete_DefaultModelAndHeaders(t *testing.T) {
	t.Parallel()

	reqCh := make(chan map[string]any, 1)
	hdrCh := make(chan http.Header, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var gotReq map[string]any
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		reqCh <- gotReq
		hdrCh <- r.Header.Clone()

		w.Header().Set("content-type", "application/json")
		model, _ := gotReq["model"].(string)
		_ = json.NewEncoder(w).Encode(messageResponse(
			"msg_1", model, "end_turn",
			[]map[string]any{textBlock("Sally will look in the basket.")},
			10, 7,
		))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", WithBaseURL(srv.URL+"/v1/"))
	resp, err := c.Complete(context.Background(), &Request{
		Messages:  []Message{{Role: "user", Content: "Where will Sally look?"}},
		MaxTokens: 32,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp == nil || len(resp.Content) != 1 {
		t.Fatalf("Complete: response %#v", resp)
	}
	if resp.Content[0].Text != "Sally will look in the basket." {
		t.Fatalf("text: got %q", resp.Content[0].Text)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 7 {
		t.Fatalf("usage: got %+v", resp.Usage)
	}

	gotReq := <-reqCh
	gotHdr := <-hdrCh

	if gotReq["model"] != defaultModel {
		t.Fatalf("model: got %v want %q", gotReq["model"], defaultModel)
	}
	if gotReq["max_tokens"] != float64(32) {
		t.Fatalf("max_tokens: got %v", gotReq["max_tokens"])
	}
	if gotHdr.Get("x-api-key") != "test-key" {
		t.Fatalf("x-api-key: got %q", gotHdr.Get("x-api-key"))
	}
	if gotHdr.Get("anthropic-version") != apiVersionHeader {
		t.Fatalf("anthropic-version: got %q", gotHdr.Get("anthropic-version"))
	}
}

func TestComplete_SendsZeroTemperature(t *testing.T) {
	t.Parallel()

	reqCh := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var gotReq map[string]any
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		reqCh <- gotReq

		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(
			"msg_t", defaultModel, "end_turn",
			[]map[string]any{textBlock("box")},
			2, 1,
		))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), &Request{
		Messages:    []Message{{Role: "user", Content: "Where is the ball?"}},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	gotReq := <-reqCh
	temp, ok := gotReq["temperature"]
	if !ok {
		t.Fatalf("temperature missing from request body: %v", gotReq)
	}
	if temp != float64(0) {
		t.Fatalf("temperature: got %v want 0", temp)
	}
}

func TestCompleteText_CollectsTextAndUsage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(
			"msg_2", defaultModel, "end_turn",
			[]map[string]any{textBlock("yes, "), textBlock("she does")},
			3, 4,
		))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	res, err := c.CompleteText(context.Background(), &Request{
		Messages:  []Message{{Role: "user", Content: "hi"}},
		MaxTokens: 16,
	})
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if res.TextContent != "yes, she does" {
		t.Fatalf("TextContent: got %q", res.TextContent)
	}
	if res.InputTokens != 3 || res.OutputTokens != 4 {
		t.Fatalf("tokens: got in=%d out=%d", res.InputTokens, res.OutputTokens)
	}
}

func TestComplete_RetriesOn5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("content-type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
			return
		}
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(
			"msg_3", defaultModel, "end_turn",
			[]map[string]any{textBlock("ok")},
			1, 1,
		))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRetry(2))
	c.retryBase = time.Millisecond

	resp, err := c.Complete(context.Background(), &Request{
		Messages:  []Message{{Role: "user", Content: "hi"}},
		MaxTokens: 8,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if Text(resp) != "ok" {
		t.Fatalf("text: got %q", Text(resp))
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls: got %d want 2", got)
	}
}

func TestComplete_SurfacesAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), &Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "invalid_request_error") {
		t.Fatalf("error: got %q", err.Error())
	}
}

func TestComplete_NilArguments(t *testing.T) {
	t.Parallel()

	if _, err := (*Client)(nil).Complete(context.Background(), &Request{}); err == nil {
		t.Fatalf("nil client: expected error")
	}

	c := NewClient("k")
	if _, err := c.Complete(nil, &Request{}); err == nil { //nolint:staticcheck
		t.Fatalf("nil context: expected error")
	}
	if _, err := c.Complete(context.Background(), nil); err == nil {
		t.Fatalf("nil request: expected error")
	}
}

func TestOptions_NilReceiverAndValidation(t *testing.T) {
	t.Parallel()

	WithBaseURL("http://example.com")(nil)
	WithModel("m")(nil)
	WithRetry(1)(nil)
	WithTimeout(time.Second)(nil)

	c := &Client{}
	WithBaseURL(" ")(c)
	WithModel(" ")(c)
	WithRetry(-1)(c)
	WithTimeout(250 * time.Millisecond)(c)

	if c.retryMax != 0 {
		t.Fatalf("retryMax: got %d want 0", c.retryMax)
	}
	if c.httpClient == nil || c.httpClient.Timeout != 250*time.Millisecond {
		t.Fatalf("httpClient timeout: %#v", c.httpClient)
	}
}

func TestAPIError_ErrorFormatting(t *testing.T) {
	t.Parallel()

	if got := (*APIError)(nil).Error(); got != "claude: api error <nil>" {
		t.Fatalf("Error(nil): got %q", got)
	}

	e := &APIError{Status: "400 Bad Request", Type: "invalid", Message: "bad"}
	if got := e.Error(); !strings.Contains(got, "invalid: bad") {
		t.Fatalf("Error(): got %q", got)
	}

	e = &APIError{Status: "500 Internal Server Error", Body: []byte(" body ")}
	if got := e.Error(); !strings.Contains(got, ": body") {
		t.Fatalf("Error(): got %q", got)
	}
}

func TestEnsureAuth_EnvFallbacks(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "")

	c := &Client{}
	if err := c.ensureAuth(); err == nil {
		t.Fatalf("ensureAuth: expected error")
	}

	t.Setenv("ANTHROPIC_API_KEY", "k")
	c = &Client{}
	if err := c.ensureAuth(); err != nil {
		t.Fatalf("ensureAuth(api key): %v", err)
	}
	if c.apiKey != "k" {
		t.Fatalf("apiKey: got %q", c.apiKey)
	}
}

func TestSDKBaseURL(t *testing.T) {
	t.Parallel()

	if got := sdkBaseURL("http://example.com/v1/"); got != "http://example.com" {
		t.Fatalf("sdkBaseURL: got %q", got)
	}
	if got := sdkBaseURL("http://example.com"); got != "http://example.com" {
		t.Fatalf("sdkBaseURL: got %q", got)
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	if got := Text(nil); got != "" {
		t.Fatalf("Text(nil): got %q", got)
	}
	resp := &Response{Content: []ContentBlock{
		{Type: "text", Text: "a"},
		{Type: "other"},
		{Type: "text", Text: "b"},
	}}
	if got := Text(resp); got != "ab" {
		t.Fatalf("Text: got %q", got)
	}
}
