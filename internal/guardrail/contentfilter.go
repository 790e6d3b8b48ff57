package guardrail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// defaultBlockedTerms is the built-in deny list for the content filter.
// Deliberately small: this engine tests model configurations, it is not a
// moderation product.
var defaultBlockedTerms = []string{
	"ignore previous instructions",
	"ignore all previous instructions",
	"system prompt:",
	"<script>",
}

// ContentFilter blocks prompts and responses containing denied substrings.
// Matching is case-insensitive.
type ContentFilter struct {
	terms []string
}

// NewContentFilter creates a filter over the given terms, falling back to
// the built-in list when none are supplied.
func NewContentFilter(terms []string) *ContentFilter {
	if len(terms) == 0 {
		terms = defaultBlockedTerms
	}
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return &ContentFilter{terms: lowered}
}

func (f *ContentFilter) Name() string { return "contentfilter" }

func (f *ContentFilter) SupportedHooks() []Hook {
	return []Hook{HookPreCall, HookPostCall}
}

func (f *ContentFilter) Run(_ context.Context, hook Hook, prompt, response string) (Result, error) {
	text := prompt
	if hook == HookPostCall {
		text = response
	}
	lowered := strings.ToLower(text)
	for _, term := range f.terms {
		if strings.Contains(lowered, term) {
			return Result{
				Passed:  false,
				Message: fmt.Sprintf("content contains blocked term %q", term),
			}, nil
		}
	}
	return Result{Passed: true}, nil
}

// EmptyResponse fails post-call when the model returned no usable text.
type EmptyResponse struct{}

func (EmptyResponse) Name() string { return "emptyresponse" }

func (EmptyResponse) SupportedHooks() []Hook { return []Hook{HookPostCall} }

func (EmptyResponse) Run(_ context.Context, _ Hook, _ string, response string) (Result, error) {
	if strings.TrimSpace(response) == "" {
		return Result{Passed: false, Message: "model returned an empty response"}, nil
	}
	return Result{Passed: true}, nil
}

// NewDefaultRegistry builds the registry for the configured guardrail mode.
// "none" yields an empty registry, which passes everything.
func NewDefaultRegistry(mode string, logger *slog.Logger) *Registry {
	reg := NewRegistry(logger)
	if mode == "none" {
		return reg
	}
	reg.Register(NewContentFilter(nil))
	reg.Register(EmptyResponse{})
	return reg
}
