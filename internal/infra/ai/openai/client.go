package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/medassist/internal/domain/ai"
)

const (
	ProviderName = "openai"
	maxTokens    = 2048
)

type Client struct {
	api *openai.Client
}

// NewClient builds a client; baseURL may be empty for the public API.
// timeout bounds each HTTP call (60s when <= 0).
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{api: openai.NewClientWithConfig(cfg)}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Generate(ctx context.Context, in ai.Request) (ai.Response, error) {
	tokens := in.MaxTokens
	if tokens <= 0 {
		tokens = maxTokens
	}
	req := openai.ChatCompletionRequest{
		Model: in.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: in.System},
			{Role: openai.ChatMessageRoleUser, Content: in.User},
		},
	}
	if in.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(in.Model) {
		req.MaxCompletionTokens = tokens
	} else {
		req.MaxTokens = tokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return ai.Response{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return ai.Response{}, fmt.Errorf("%w: empty completion", ai.ErrProviderFailed)
	}

	return ai.Response{
		Text:       resp.Choices[0].Message.Content,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, apiErr.Message)
		}
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: openai rejected the API key", ai.ErrProviderNotConfigured)
		}
		return fmt.Errorf("%w: openai status %d: %s", ai.ErrProviderFailed, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ai.ErrProviderFailed, err)
	}
	return fmt.Errorf("%w: failed to create chat completion: %v", ai.ErrProviderFailed, err)
}
