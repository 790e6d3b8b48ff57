// Package adapter dispatches a single test invocation to a model provider
// and normalizes the result. Adapters never retry: a timeout or provider
// error surfaces as a failed invocation for the caller to record.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when an invocation exceeds its deadline.
var ErrTimeout = errors.New("adapter timeout")

// ErrNoAPIKey is returned when a remote provider has no credential configured.
var ErrNoAPIKey = errors.New("no API key configured")

// ErrUnknownProvider is returned when no adapter is registered for a
// descriptor's provider.
var ErrUnknownProvider = errors.New("unknown provider")

// InvocationError is a provider-reported failure (non-2xx response).
type InvocationError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s invocation failed (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Request is a normalized single-prompt invocation.
type Request struct {
	Model            string
	Prompt           string
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Response is the normalized invocation result.
type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	FinishReason     string
	Latency          time.Duration
}

// Adapter invokes one provider's models.
type Adapter interface {
	// Provider returns the provider identifier this adapter serves.
	Provider() string

	// Invoke runs a single completion. The context carries the invocation
	// deadline; exceeding it returns ErrTimeout.
	Invoke(ctx context.Context, apiKey string, req *Request) (*Response, error)
}

// Registry maps provider identifiers to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, replacing any existing one for the provider.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Provider()] = a
}

// For returns the adapter for a provider, or ErrUnknownProvider.
func (r *Registry) For(provider string) (Adapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return a, nil
}

// Providers returns the registered provider identifiers.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
