// Package enrich attaches article text and images to candidates.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/scrape"
)

type Enricher struct {
	extractor scrape.Extractor
	workers   int
	timeout   time.Duration
}

func New(ex scrape.Extractor, workers int, timeout time.Duration) *Enricher {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Enricher{extractor: ex, workers: workers, timeout: timeout}
}

// Enrich returns a copy of cands with Body and ImageURL filled where the
// extractor found something, and how many were enriched. It never fails.
func (e *Enricher) Enrich(ctx context.Context, cands []model.Candidate) ([]model.Candidate, int) {
	out := make([]model.Candidate, len(cands))
	copy(out, cands)
	if len(out) == 0 || e.extractor == nil {
		return out, 0
	}

	type result struct {
		idx int
		art scrape.Article
	}
	sem := make(chan struct{}, e.workers)
	done := make(chan result, len(out))
	for i := range out {
		i, link := i, out[i].Link
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			ictx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			done <- result{idx: i, art: e.extractor.Extract(ictx, link)}
		}()
	}
	n := 0
	for range out {
		r := <-done
		if r.art.Empty() {
			continue
		}
		if r.art.Text != "" {
			out[r.idx].Body = r.art.Text
		}
		if r.art.ImageURL != nil {
			out[r.idx].ImageURL = r.art.ImageURL
		}
		n++
	}
	slog.Info("enrich: done", "candidates", len(out), "enriched", n)
	return out, n
}
