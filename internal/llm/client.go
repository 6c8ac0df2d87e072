// Package llm is the chat completions client for OpenAI-compatible
// providers and gateways.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/metrics"
)

// Client issues one chat completion per Complete call. It never retries.
type Client struct {
	api         *openai.Client
	timeout     time.Duration
	jsonMode    bool
	temperature *float32
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New returns a Client for the endpoint in cfg. metrics may be nil.
func New(cfg *config.LLMConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		api:         openai.NewClientWithConfig(oc),
		timeout:     cfg.TimeoutDuration(),
		jsonMode:    cfg.JSONModeEnabled(),
		temperature: cfg.Temperature,
		logger:      logger.With("module", "llm"),
		metrics:     m,
	}
}

// Complete sends the system and user messages to model and returns the raw
// reply text. Cancellation of ctx is returned as ctx.Err(); every other
// failure is a *ProviderError.
func (c *Client) Complete(ctx context.Context, system, user, model string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if c.temperature != nil {
		req.Temperature = *c.temperature
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(callCtx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		perr := classify(err)
		c.metrics.LLMRequest(model, perr)
		c.logger.Debug("chat completion failed", "model", model, "error", perr)
		return "", perr
	}

	text, err := reply(resp)
	c.metrics.LLMRequest(model, err)
	if err != nil {
		return "", err
	}

	c.logger.Debug("chat completion finished",
		"model", model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	return text, nil
}

func reply(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Kind: ErrUnexpected, Body: "response has no choices"}
	}

	msg := resp.Choices[0].Message
	if msg.Content != "" || len(msg.MultiContent) == 0 {
		return msg.Content, nil
	}

	var b strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

func classify(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Kind:   KindForStatus(apiErr.HTTPStatusCode),
			Status: apiErr.HTTPStatusCode,
			Body:   apiErr.Message,
			Err:    err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &ProviderError{
			Kind:   KindForStatus(reqErr.HTTPStatusCode),
			Status: reqErr.HTTPStatusCode,
			Body:   string(reqErr.Body),
			Err:    err,
		}
	}

	return &ProviderError{Kind: ErrUnreachable, Err: err}
}
