package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calyptra/modelbench/internal/tokenizer"
)

// Local serves locally hosted free models. It never needs a credential and
// produces a deterministic completion, which makes it the zero-cost target
// for exercising the pipeline without a remote provider.
type Local struct {
	counter tokenizer.Tokenizer
}

// NewLocal creates the local adapter.
func NewLocal(counter tokenizer.Tokenizer) *Local {
	return &Local{counter: counter}
}

func (a *Local) Provider() string { return "local" }

// Invoke produces a canned completion for the prompt. Token counts come from
// the shared tokenizer so costs and efficiency bonuses behave the same as
// for remote providers.
func (a *Local) Invoke(ctx context.Context, _ string, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		if err == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, err
	}

	start := time.Now()
	text := fmt.Sprintf("[%s] %s", req.Model, summarize(req.Prompt))

	promptTokens, err := a.counter.CountPrompt(req.Prompt, req.Model)
	if err != nil {
		promptTokens = tokenizer.EstimateTokens(req.Prompt)
	}
	completionTokens, err := a.counter.CountTokens(text, req.Model)
	if err != nil {
		completionTokens = tokenizer.EstimateTokens(text)
	}

	finish := "stop"
	if req.MaxTokens > 0 && completionTokens > req.MaxTokens {
		finish = "length"
		completionTokens = req.MaxTokens
	}

	return &Response{
		Text:             text,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		FinishReason:     finish,
		Latency:          time.Since(start),
	}, nil
}

// summarize echoes the head of the prompt back, the way a trivial local
// completion endpoint would.
func summarize(prompt string) string {
	const maxWords = 40
	words := strings.Fields(prompt)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
