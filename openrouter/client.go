// Package openrouter implements the benchmark's decision source on the
// OpenRouter chat completions API, with per-model reasoning settings.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wikibench/wikibench"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// APIError is a non-rate-limit error response from OpenRouter.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter http %d: %s", e.StatusCode, e.Message)
}

// RateLimitError reports a 429 from OpenRouter. The attempt runner's
// backoff handles the wait.
type RateLimitError struct {
	RetryAfter string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("openrouter rate limited (retry-after: %s)", e.RetryAfter)
}

// ErrEmptyResponse reports a completion with no usable content.
var ErrEmptyResponse = errors.New("openrouter: empty response content")

// Client calls OpenRouter for one model under one reasoning mode.
// Implements wikibench.DecisionProvider.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	mode       wikibench.ReasoningMode
	maxTokens  int
	httpClient *http.Client
	referer    string
	title      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different endpoint (tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxTokens sets the completion token cap (default 4096). Anthropic
// models get it raised automatically above their reasoning budget.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// New constructs a Client for one model and reasoning mode.
func New(apiKey, model string, mode wikibench.ReasoningMode, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      model,
		mode:       mode,
		maxTokens:  4096,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		referer:    "https://github.com/wikibench",
		title:      "WikiBench",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model     string           `json:"model"`
	Messages  []message        `json:"messages"`
	MaxTokens int              `json:"max_tokens"`
	Reasoning *reasoningParams `json:"reasoning,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Decide sends one chat completion and returns the raw assistant text.
// Failures surface as typed errors; retrying is the caller's concern.
func (c *Client) Decide(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reasoning, err := paramsFor(c.model, c.mode)
	if err != nil {
		return "", err
	}

	// Anthropic counts reasoning tokens against max_tokens, which must
	// therefore exceed the reasoning budget.
	maxTokens := c.maxTokens
	if reasoning != nil && reasoning.MaxTokens > 0 && maxTokens <= reasoning.MaxTokens {
		maxTokens = reasoning.MaxTokens + c.maxTokens
	}

	var messages []message
	if systemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, message{Role: "user", Content: userPrompt})

	payload, err := json.Marshal(completionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Reasoning: reasoning,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.title)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{RetryAfter: resp.Header.Get("Retry-After")}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &APIError{StatusCode: resp.StatusCode, Message: "unreadable body"}
		}
		return "", fmt.Errorf("openrouter: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: decoded.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return decoded.Choices[0].Message.Content, nil
}
