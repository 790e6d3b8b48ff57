package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter is a deterministic tokenizer for tests: one token per word.
type wordCounter struct{}

func (wordCounter) CountTokens(text, _ string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (wordCounter) CountPrompt(prompt, _ string) (int, error) {
	return len(strings.Fields(prompt)) + 7, nil
}

func TestLocalInvoke(t *testing.T) {
	a := NewLocal(wordCounter{})
	assert.Equal(t, "local", a.Provider())

	resp, err := a.Invoke(context.Background(), "", &Request{
		Model: "llama-local", Prompt: "say something nice", MaxTokens: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, "[llama-local] say something nice", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 10, resp.PromptTokens) // 3 words + framing
	assert.Equal(t, 4, resp.CompletionTokens)
	assert.Equal(t, resp.PromptTokens+resp.CompletionTokens, resp.TotalTokens)
}

func TestLocalInvokeDeterministic(t *testing.T) {
	a := NewLocal(wordCounter{})
	req := &Request{Model: "llama-local", Prompt: "same prompt", MaxTokens: 100}

	first, err := a.Invoke(context.Background(), "", req)
	require.NoError(t, err)
	second, err := a.Invoke(context.Background(), "", req)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.TotalTokens, second.TotalTokens)
}

func TestLocalTruncatesLongPrompts(t *testing.T) {
	a := NewLocal(wordCounter{})

	long := strings.Repeat("word ", 100)
	resp, err := a.Invoke(context.Background(), "", &Request{
		Model: "llama-local", Prompt: long, MaxTokens: 500,
	})
	require.NoError(t, err)

	// Echo is capped at 40 words plus the model tag
	assert.Len(t, strings.Fields(resp.Text), 41)
}

func TestLocalMaxTokensClamp(t *testing.T) {
	a := NewLocal(wordCounter{})

	resp, err := a.Invoke(context.Background(), "", &Request{
		Model: "llama-local", Prompt: "one two three four five six", MaxTokens: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "length", resp.FinishReason)
	assert.Equal(t, 2, resp.CompletionTokens)
}

func TestLocalCancelledContext(t *testing.T) {
	a := NewLocal(wordCounter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Invoke(ctx, "", &Request{Model: "llama-local", Prompt: "hello"})
	assert.Error(t, err)
}
