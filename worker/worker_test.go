package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/pipeline"
)

type fakeRunner struct {
	ran []model.Category
}

func (f *fakeRunner) Categories() []model.Category {
	return []model.Category{model.KPop, model.KDrama}
}

func (f *fakeRunner) RunCategory(_ context.Context, c model.Category) (pipeline.Report, error) {
	f.ran = append(f.ran, c)
	return pipeline.Report{Category: c}, nil
}

func TestRotateWithLocalCursor(t *testing.T) {
	r := &fakeRunner{}
	cur := &LocalCursor{}
	for i := 0; i < 3; i++ {
		if _, err := Rotate(context.Background(), r, cur); err != nil {
			t.Fatal(err)
		}
	}
	want := []model.Category{model.KPop, model.KDrama, model.KPop}
	for i := range want {
		if r.ran[i] != want[i] {
			t.Fatalf("ran = %v", r.ran)
		}
	}
}

func TestLocalCursorEmpty(t *testing.T) {
	if _, err := (&LocalCursor{}).NextCategory(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := &Scheduler{Jobs: []Job{{Name: "bad", Spec: "every tuesday", Run: func(context.Context) error { return nil }}}}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Start(ctx); err == nil {
		t.Fatal("expected spec error")
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	s := &Scheduler{Jobs: []Job{{Name: "hourly", Spec: "@hourly", Run: func(context.Context) error { return nil }}}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunJobSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	runJob(ctx, Job{Name: "x", Run: func(context.Context) error { called = true; return errors.New("x") }})
	if called {
		t.Fatal("job should not run after cancellation")
	}
}

type stubWorker struct{ err error }

func (s stubWorker) Start(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

func TestManagerReportsWorkerError(t *testing.T) {
	m := NewManager(stubWorker{}, stubWorker{err: errors.New("bind: address in use")})
	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected worker error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failing worker did not stop the others")
	}
}

func TestManagerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(stubWorker{}, stubWorker{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
