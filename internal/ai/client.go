// Package ai is the chat-completions client used for summarization and
// content generation. Teams bring their own provider credentials; every
// response carries token usage for the quota ledger.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contentradar/internal/domain"
	"contentradar/internal/metrics"
)

const defaultBaseURL = "https://api.openai.com/v1"

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ai provider: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("ai provider: unexpected status %d", e.StatusCode)
}

// IsRateLimited reports whether err is a provider 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsTimeout reports whether err is a client-side timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

type Client struct {
	httpClient *http.Client
}

type Config struct {
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GenerateResult is the outcome of one text generation call.
type GenerateResult struct {
	Text  string
	Usage domain.TokenUsage
	Model string
}

// SummarizeResult is the outcome of one post summarization call.
type SummarizeResult struct {
	Summary        string
	RelevancyScore int
	Title          string
	Usage          domain.TokenUsage
	Model          string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
}

// Generate runs one chat completion with a system and user prompt.
func (c *Client) Generate(ctx context.Context, provider domain.AIProviderConfig, systemPrompt, userPrompt string) (GenerateResult, error) {
	resp, err := c.complete(ctx, provider, chatRequest{
		Model: provider.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return GenerateResult{}, err
	}
	return GenerateResult{
		Text:  resp.Choices[0].Message.Content,
		Usage: usageFromResponse(resp),
		Model: modelFromResponse(resp, provider),
	}, nil
}

const summarizeSystemPrompt = `You analyze one web article for a content team.
Reply with a JSON object with exactly these keys:
"summary" (3-5 sentence summary), "relevancy_score" (integer 0-100, how
useful this article is as raw material for derivative content),
"title" (a concise internal working title).`

type summarizePayload struct {
	Summary        string `json:"summary"`
	RelevancyScore int    `json:"relevancy_score"`
	Title          string `json:"title"`
}

// Summarize scores and summarizes one article.
func (c *Client) Summarize(ctx context.Context, provider domain.AIProviderConfig, uri, pageText string) (SummarizeResult, error) {
	user := fmt.Sprintf("URL: %s\n\n%s", uri, pageText)
	resp, err := c.complete(ctx, provider, chatRequest{
		Model: provider.Model,
		Messages: []chatMessage{
			{Role: "system", Content: summarizeSystemPrompt},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return SummarizeResult{}, err
	}

	var payload summarizePayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return SummarizeResult{}, fmt.Errorf("decode summary payload: %w", err)
	}
	if payload.RelevancyScore < 0 {
		payload.RelevancyScore = 0
	}
	if payload.RelevancyScore > 100 {
		payload.RelevancyScore = 100
	}

	return SummarizeResult{
		Summary:        payload.Summary,
		RelevancyScore: payload.RelevancyScore,
		Title:          payload.Title,
		Usage:          usageFromResponse(resp),
		Model:          modelFromResponse(resp, provider),
	}, nil
}

func (c *Client) complete(ctx context.Context, provider domain.AIProviderConfig, req chatRequest) (*chatResponse, error) {
	if !provider.Configured() {
		return nil, domain.ErrProviderNotConfigured
	}

	baseURL := provider.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/chat/completions"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+provider.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var wire struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(respBody, &wire); jsonErr == nil {
			apiErr.Message = wire.Error.Message
		}
		return nil, apiErr
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("ai provider: empty choices")
	}

	if completion.Usage != nil {
		metrics.ObserveLLMCall(modelFromResponse(&completion, provider), start,
			completion.Usage.PromptTokens, completion.Usage.CompletionTokens, completion.Usage.TotalTokens)
	}
	return &completion, nil
}

func usageFromResponse(resp *chatResponse) domain.TokenUsage {
	if resp.Usage == nil {
		return domain.TokenUsage{}
	}
	return domain.TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
}

func modelFromResponse(resp *chatResponse, provider domain.AIProviderConfig) string {
	if resp.Model != "" {
		return resp.Model
	}
	return provider.Model
}
