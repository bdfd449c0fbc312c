package ai

import (
	"context"
	"errors"
	"testing"

	"hallyu-journalist/internal/failure"
)

type scripted struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) Complete(context.Context, string, string, bool) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestChainFallsThrough(t *testing.T) {
	a := &scripted{name: "a", err: errors.New("503")}
	b := &scripted{name: "b", text: "   "}
	c := &scripted{name: "c", text: "not json"}
	d := &scripted{name: "d", text: `{"ok":true}`}
	chain := NewChain(0, a, b, c, d)

	var used string
	err := chain.Each(context.Background(), "test", "sys", "user", true, func(model, text string) bool {
		if _, err := ExtractJSON(text); err != nil {
			return false
		}
		used = model
		return true
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if used != "d" {
		t.Fatalf("used %q, want d", used)
	}
}

func TestChainExhaustedIsTransient(t *testing.T) {
	chain := NewChain(0, &scripted{name: "a", err: errors.New("x")}, &scripted{name: "b"})
	_, err := chain.Complete(context.Background(), "s", "u", false)
	if failure.KindOf(err) != failure.KindTransient {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestChainBudget(t *testing.T) {
	a := &scripted{name: "a", err: errors.New("x")}
	b := &scripted{name: "b", text: "fine"}
	chain := NewChain(1, a, b)
	if _, err := chain.Complete(context.Background(), "s", "u", false); err == nil {
		t.Fatalf("expected budget error")
	}
	if b.calls != 0 {
		t.Fatalf("budget exceeded: b called %d times", b.calls)
	}
	chain.ResetBudget()
	a.err = nil
	a.text = "ok"
	out, err := chain.Complete(context.Background(), "s", "u", false)
	if err != nil || out != "ok" {
		t.Fatalf("after reset got %q, %v", out, err)
	}
}

func TestChainWithoutProviders(t *testing.T) {
	_, err := NewChain(0).Complete(context.Background(), "s", "u", false)
	if !failure.IsFatal(err) {
		t.Fatalf("empty chain should be a config error, got %v", err)
	}
}
