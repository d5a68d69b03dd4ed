package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/medassist/internal/domain/ai"
)

const (
	ProviderName   = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client calls the generateContent REST endpoint.
type Client struct {
	http *resty.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("x-goog-api-key", apiKey)
	return &Client{http: cli}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Generate(ctx context.Context, in ai.Request) (ai.Response, error) {
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: in.User}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: in.MaxTokens,
		},
	}
	if in.System != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: in.System}}}
	}
	if in.JSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	var out generateResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", in.Model).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ai.Response{}, fmt.Errorf("%w: %w", ai.ErrProviderFailed, err)
		}
		return ai.Response{}, fmt.Errorf("%w: gemini request: %v", ai.ErrProviderFailed, err)
	}
	if resp.IsError() {
		switch resp.StatusCode() {
		case http.StatusTooManyRequests:
			return ai.Response{}, fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, apiErr.Error.Message)
		case http.StatusUnauthorized, http.StatusForbidden:
			return ai.Response{}, fmt.Errorf("%w: gemini rejected the API key", ai.ErrProviderNotConfigured)
		}
		return ai.Response{}, fmt.Errorf("%w: gemini status %d: %s", ai.ErrProviderFailed, resp.StatusCode(), apiErr.Error.Message)
	}
	if len(out.Candidates) == 0 {
		return ai.Response{}, fmt.Errorf("%w: gemini returned no candidates", ai.ErrProviderFailed)
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	model := out.ModelVersion
	if model == "" {
		model = in.Model
	}
	return ai.Response{
		Text:       text.String(),
		Model:      model,
		TokensUsed: out.UsageMetadata.TotalTokenCount,
	}, nil
}
