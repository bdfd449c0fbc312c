package worker

import (
	"context"
	"errors"
	"sync"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/pipeline"
)

// Cursor picks the next category to process.
type Cursor interface {
	NextCategory(ctx context.Context, categories []model.Category) (model.Category, error)
}

// LocalCursor rotates in process when no shared cursor is available.
type LocalCursor struct {
	mu sync.Mutex
	n  int
}

func (l *LocalCursor) NextCategory(_ context.Context, categories []model.Category) (model.Category, error) {
	if len(categories) == 0 {
		return "", errors.New("no categories to rotate")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c := categories[l.n%len(categories)]
	l.n++
	return c, nil
}

// CategoryRunner runs the pipeline for one category.
type CategoryRunner interface {
	Categories() []model.Category
	RunCategory(ctx context.Context, category model.Category) (pipeline.Report, error)
}

// Rotate processes the next category in the rotation.
func Rotate(ctx context.Context, runner CategoryRunner, cursor Cursor) (pipeline.Report, error) {
	cat, err := cursor.NextCategory(ctx, runner.Categories())
	if err != nil {
		return pipeline.Report{}, err
	}
	return runner.RunCategory(ctx, cat)
}

// RotateJob wraps Rotate for the scheduler.
func RotateJob(spec string, runner CategoryRunner, cursor Cursor) Job {
	return Job{Name: "rotate", Spec: spec, Run: func(ctx context.Context) error {
		_, err := Rotate(ctx, runner, cursor)
		return err
	}}
}
