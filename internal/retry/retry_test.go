package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"hallyu-journalist/internal/failure"
)

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), Config{MaxAttempts: 3, Delay: time.Millisecond}, func() error {
		calls++
		if calls < 2 {
			return failure.Transient("op", errors.New("flaky"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), Config{MaxAttempts: 3, Delay: time.Millisecond}, func() error {
		calls++
		return failure.Transient("op", errors.New("down"))
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if failure.KindOf(err) != failure.KindTransient {
		t.Fatalf("kind lost through wrapping: %v", err)
	}
}

func TestWithRetrySkipsMalformed(t *testing.T) {
	calls := 0
	_ = WithRetry(context.Background(), Config{MaxAttempts: 5, Delay: time.Millisecond}, func() error {
		calls++
		return failure.Malformed("op", errors.New("bad json"))
	})
	if calls != 1 {
		t.Fatalf("malformed error retried %d times", calls)
	}
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, Config{MaxAttempts: 3, Delay: time.Second}, func() error {
		return failure.Transient("op", errors.New("down"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
