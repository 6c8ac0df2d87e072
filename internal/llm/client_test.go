package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/llm"
	"github.com/JaimeStill/harmony/internal/metrics"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "openai/gpt-5-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(body)
}

func newClient(baseURL, timeout string, jsonMode bool) *llm.Client {
	cfg := &config.LLMConfig{
		BaseURL:  baseURL,
		APIKey:   "test-key",
		Timeout:  timeout,
		JSONMode: &jsonMode,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return llm.New(cfg, logger, metrics.New())
}

func TestComplete(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization: got %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Model != "openai/gpt-5-mini" {
			t.Errorf("model: got %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages: got %+v", req.Messages)
		}
		if req.Messages[1].Content != "Source type: text\nhi" {
			t.Errorf("user content: got %q", req.Messages[1].Content)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("response format: got %+v", req.ResponseFormat)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion(`{"event_title": null}`))
	}))
	defer srv.Close()

	text, err := newClient(srv.URL+"/v1", "10s", true).Complete(
		context.Background(), "system", "Source type: text\nhi", "openai/gpt-5-mini",
	)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if text != `{"event_title": null}` {
		t.Errorf("reply should be returned raw: %q", text)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one request, got %d", calls.Load())
	}
}

func TestCompleteWithoutJSONMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat != nil {
			t.Errorf("response format should be omitted: %+v", req.ResponseFormat)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion("```json\n{}\n```"))
	}))
	defer srv.Close()

	text, err := newClient(srv.URL, "10s", false).Complete(context.Background(), "s", "u", "m")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if text != "```json\n{}\n```" {
		t.Errorf("reply should not be unfenced by the client: %q", text)
	}
}

func TestCompleteProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
		detail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, llm.ErrUnauthorized, "bad key"},
		{"forbidden", http.StatusForbidden, `{"error":{"message":"no access","type":"auth"}}`, llm.ErrUnauthorized, "no access"},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate"}}`, llm.ErrRateLimited, "slow down"},
		{"bad gateway", http.StatusBadGateway, `upstream down`, llm.ErrUnreachable, "upstream down"},
		{"gateway timeout", http.StatusGatewayTimeout, `timeout`, llm.ErrUnreachable, "timeout"},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"unknown model","type":"invalid"}}`, llm.ErrUnexpected, "unknown model"},
		{"server error", http.StatusInternalServerError, `oops`, llm.ErrUnexpected, "oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newClient(srv.URL, "10s", true).Complete(context.Background(), "s", "u", "m")

			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}

			var pe *llm.ProviderError
			if !errors.As(err, &pe) || pe.Status != tt.status {
				t.Fatalf("status: got %+v", pe)
			}
			if pe.Body != tt.detail {
				t.Errorf("body: got %q, want %q", pe.Body, tt.detail)
			}
			if calls.Load() != 1 {
				t.Errorf("provider errors must not be retried: %d calls", calls.Load())
			}
		})
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "10s", true).Complete(context.Background(), "s", "u", "m")
	if !errors.Is(err, llm.ErrUnexpected) {
		t.Errorf("expected ErrUnexpected, got %v", err)
	}
}

func TestCompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(url, "10s", true).Complete(context.Background(), "s", "u", "m")
	if !errors.Is(err, llm.ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newClient(srv.URL, "50ms", true).Complete(context.Background(), "s", "u", "m")
	if !errors.Is(err, llm.ErrUnreachable) {
		t.Errorf("expected ErrUnreachable on timeout, got %v", err)
	}
}

func TestCompleteCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newClient(srv.URL, "10s", true).Complete(ctx, "s", "u", "m")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		t.Error("cancellation should not be reported as a provider error")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		kind error
		want int
	}{
		{llm.ErrUnauthorized, http.StatusBadGateway},
		{llm.ErrUnexpected, http.StatusBadGateway},
		{llm.ErrRateLimited, http.StatusTooManyRequests},
		{llm.ErrUnreachable, http.StatusGatewayTimeout},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		err := &llm.ProviderError{Kind: tt.kind}
		if got := llm.MapHTTPStatus(err); got != tt.want {
			t.Errorf("%v: got %d, want %d", tt.kind, got, tt.want)
		}
	}
}
