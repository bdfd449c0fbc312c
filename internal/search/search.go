// Package search wraps the news search providers that feed the collector.
package search

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"hallyu-journalist/internal/model"
)

// Searcher returns raw candidates for a query term.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, max int) ([]model.Candidate, error)
}

// Fallback tries providers in order and returns the first non-empty result.
type Fallback struct {
	Providers []Searcher
}

func NewFallback(ps ...Searcher) *Fallback {
	return &Fallback{Providers: ps}
}

func (f *Fallback) Name() string {
	names := make([]string, 0, len(f.Providers))
	for _, p := range f.Providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, ",")
}

// Search returns an error only when every provider failed.
func (f *Fallback) Search(ctx context.Context, query string, max int) ([]model.Candidate, error) {
	var errs []error
	for _, p := range f.Providers {
		items, err := p.Search(ctx, query, max)
		if err != nil {
			slog.Warn("search: provider failed", "provider", p.Name(), "query", query, "error", err)
			errs = append(errs, err)
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	if len(errs) == len(f.Providers) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// CleanText removes markup such as <b> highlights and decodes entities.
func CleanText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeLink is the key used to compare links across providers and runs.
// It is never stored or fetched; the source link is kept as published.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	link = strings.TrimSuffix(link, "/")
	if strings.HasPrefix(link, "http://") {
		link = "https://" + strings.TrimPrefix(link, "http://")
	}
	return link
}
