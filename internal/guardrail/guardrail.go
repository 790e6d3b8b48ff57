// Package guardrail runs content safety checks around test invocations.
// Pre-call checks inspect the prompt before any quota is spent on dispatch;
// post-call checks inspect the model output. A block is a policy decision,
// not an infrastructure failure, and is never refunded.
package guardrail

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Hook specifies when a check runs.
type Hook string

const (
	HookPreCall  Hook = "pre_call"
	HookPostCall Hook = "post_call"
)

// Result is returned by a single check.
type Result struct {
	Passed  bool
	Message string
}

// Check is one named content safety rule.
type Check interface {
	Name() string
	SupportedHooks() []Hook
	Run(ctx context.Context, hook Hook, prompt, response string) (Result, error)
}

// BlockedError indicates a check rejected the content.
type BlockedError struct {
	CheckName string
	Message   string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked by guardrail %q: %s", e.CheckName, e.Message)
}

// Registry holds named checks and runs them in registration order.
// Checks that error (as opposed to block) follow a per-check fail-open or
// fail-closed policy; the default is fail-closed.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	checks map[string]Check
	open   map[string]bool // name → failOpen
	logger *slog.Logger
}

// NewRegistry creates an empty check registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		checks: make(map[string]Check),
		open:   make(map[string]bool),
		logger: logger,
	}
}

// Register adds a check with the default fail-closed policy.
func (r *Registry) Register(c Check) {
	r.RegisterWithPolicy(c, false)
}

// RegisterWithPolicy adds a check with an explicit failure policy.
func (r *Registry) RegisterWithPolicy(c Check, failOpen bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[c.Name()]; !exists {
		r.order = append(r.order, c.Name())
	}
	r.checks[c.Name()] = c
	r.open[c.Name()] = failOpen
}

// Names returns the registered check names in run order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// RunPreCall runs all pre-call checks against the prompt. Returns a
// *BlockedError when a check rejects it.
func (r *Registry) RunPreCall(ctx context.Context, prompt string) error {
	return r.run(ctx, HookPreCall, prompt, "")
}

// RunPostCall runs all post-call checks against the model output.
func (r *Registry) RunPostCall(ctx context.Context, prompt, response string) error {
	return r.run(ctx, HookPostCall, prompt, response)
}

func (r *Registry) run(ctx context.Context, hook Hook, prompt, response string) error {
	r.mu.RLock()
	type entry struct {
		c        Check
		failOpen bool
	}
	entries := make([]entry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, entry{c: r.checks[name], failOpen: r.open[name]})
	}
	r.mu.RUnlock()

	for _, e := range entries {
		if !slices.Contains(e.c.SupportedHooks(), hook) {
			continue
		}
		result, err := e.c.Run(ctx, hook, prompt, response)
		if err != nil {
			if e.failOpen {
				r.logger.Warn("guardrail check errored, continuing",
					"check", e.c.Name(), "hook", hook, "error", err)
				continue
			}
			return fmt.Errorf("guardrail %s: %w", e.c.Name(), err)
		}
		if !result.Passed {
			return &BlockedError{CheckName: e.c.Name(), Message: result.Message}
		}
	}
	return nil
}
