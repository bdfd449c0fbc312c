package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"hallyu-journalist/internal/failure"
)

// Completer is a single chat-completion model behind some provider.
type Completer interface {
	// Name identifies the provider and model, e.g. "groq/llama-3.3-70b-versatile".
	Name() string
	// Complete returns the raw model text. An empty string with a nil error
	// means the model answered with nothing.
	Complete(ctx context.Context, system, user string, wantJSON bool) (string, error)
}

// ErrBudgetExhausted is returned once a chain has spent its call budget.
var ErrBudgetExhausted = errors.New("ai: call budget exhausted")

// Chain is an ordered fallback list of completers sharing a per-run budget.
type Chain struct {
	completers []Completer

	mu       sync.Mutex
	maxCalls int
	calls    int
}

// NewChain builds a chain. maxCalls <= 0 means unbounded.
func NewChain(maxCalls int, cs ...Completer) *Chain {
	return &Chain{completers: cs, maxCalls: maxCalls}
}

func (c *Chain) Len() int { return len(c.completers) }

func (c *Chain) Names() []string {
	out := make([]string, 0, len(c.completers))
	for _, m := range c.completers {
		out = append(out, m.Name())
	}
	return out
}

// ResetBudget starts a new run.
func (c *Chain) ResetBudget() {
	c.mu.Lock()
	c.calls = 0
	c.mu.Unlock()
}

func (c *Chain) take() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxCalls > 0 && c.calls >= c.maxCalls {
		return false
	}
	c.calls++
	return true
}

// Each walks the completers in order, calling accept with every non-empty
// answer. Iteration stops at the first answer accept returns true for. A
// false return (unusable answer) moves on to the next model.
func (c *Chain) Each(ctx context.Context, op, system, user string, wantJSON bool, accept func(model, text string) bool) error {
	if len(c.completers) == 0 {
		return failure.Config(op, "no llm providers configured")
	}
	var errs []error
	for _, m := range c.completers {
		if err := ctx.Err(); err != nil {
			return failure.Transient(op, err)
		}
		if !c.take() {
			errs = append(errs, ErrBudgetExhausted)
			break
		}
		text, err := m.Complete(ctx, system, user, wantJSON)
		if err != nil {
			slog.Warn("ai: model failed, trying next", "op", op, "model", m.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			slog.Warn("ai: empty answer, trying next", "op", op, "model", m.Name())
			continue
		}
		if accept(m.Name(), text) {
			return nil
		}
		slog.Warn("ai: unusable answer, trying next", "op", op, "model", m.Name())
	}
	return failure.Transient(op, errors.Join(append(errs, errors.New("all models exhausted"))...))
}

// Complete returns the first non-empty answer in the chain.
func (c *Chain) Complete(ctx context.Context, system, user string, wantJSON bool) (string, error) {
	var out string
	err := c.Each(ctx, "ai: complete", system, user, wantJSON, func(_, text string) bool {
		out = text
		return true
	})
	return out, err
}
