package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default chat-completion endpoints for the OpenAI-compatible providers.
var defaultBaseURLs = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"anthropic":  "https://api.anthropic.com/v1",
}

// OpenAICompat invokes any provider speaking the OpenAI chat-completions
// wire format.
type OpenAICompat struct {
	provider string
	baseURL  string
	client   *http.Client
}

// NewOpenAICompat creates an adapter for provider. baseURL overrides the
// default endpoint when non-empty (e.g. for self-hosted gateways).
func NewOpenAICompat(provider, baseURL string, timeout time.Duration) *OpenAICompat {
	if baseURL == "" {
		baseURL = defaultBaseURLs[provider]
	}
	return &OpenAICompat{
		provider: provider,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
	}
}

func (a *OpenAICompat) Provider() string { return a.provider }

// Wire types for the chat-completions request/response.
type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p"`
	MaxTokens        int           `json:"max_tokens"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	Stream           bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Invoke runs one non-streaming completion against the provider.
func (a *OpenAICompat) Invoke(ctx context.Context, apiKey string, req *Request) (*Response, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	payload := chatRequest{
		Model:            req.Model,
		Messages:         []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		MaxTokens:        req.MaxTokens,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Stream:           false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		var urlErr interface{ Timeout() bool }
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%s request failed: %w", a.provider, err)
	}
	defer resp.Body.Close()

	latency := time.Since(start)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return nil, &InvocationError{Provider: a.provider, StatusCode: resp.StatusCode, Message: msg}
	}

	var completion chatResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, &InvocationError{Provider: a.provider, StatusCode: resp.StatusCode,
			Message: "response contained no choices"}
	}

	out := &Response{
		Text:         completion.Choices[0].Message.Content,
		FinishReason: completion.Choices[0].FinishReason,
		Latency:      latency,
	}
	if completion.Usage != nil {
		out.PromptTokens = completion.Usage.PromptTokens
		out.CompletionTokens = completion.Usage.CompletionTokens
		out.TotalTokens = completion.Usage.TotalTokens
	}
	return out, nil
}
