// Package collector fans category query terms out to the search providers
// and assembles a deduplicated candidate batch.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hallyu-journalist/internal/failure"
	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/retry"
	"hallyu-journalist/internal/search"
)

// LinkStore reports links already persisted for a category.
type LinkStore interface {
	SelectLinks(ctx context.Context, category model.Category, since time.Time) (map[string]struct{}, error)
}

// SeenIndex reports links offered to the curator recently. Optional.
type SeenIndex interface {
	FilterSeen(ctx context.Context, category model.Category, links []string) (map[string]struct{}, error)
}

// SeedSource yields trending keywords used as extra query terms. Optional.
type SeedSource interface {
	Keywords(ctx context.Context) ([]string, error)
}

type Options struct {
	PerQuery    int
	Pause       time.Duration
	DedupWindow time.Duration
	MaxAge      time.Duration
	BatchSize   int
	Retry       retry.Config
}

// Result is the candidate batch plus counters for the run report.
type Result struct {
	Candidates []model.Candidate
	Queries    int
	Failed     int
	Raw        int
	Duplicates int
	Known      int
	TooOld     int
}

type Collector struct {
	search search.Searcher
	store  LinkStore
	seen   SeenIndex
	seeds  SeedSource
	opts   Options
	now    func() time.Time
}

func New(s search.Searcher, store LinkStore, opts Options) *Collector {
	if opts.PerQuery <= 0 {
		opts.PerQuery = 20
	}
	return &Collector{search: s, store: store, opts: opts, now: time.Now}
}

// WithSeen adds the recently-seen index to the exclusion step.
func (c *Collector) WithSeen(seen SeenIndex) *Collector {
	c.seen = seen
	return c
}

// WithSeeds enables trend seed keywords for categories that ask for them.
func (c *Collector) WithSeeds(seeds SeedSource) *Collector {
	c.seeds = seeds
	return c
}

// Collect queries every term once. A failed term is skipped; an empty batch
// is a valid outcome. An error is returned only when every term failed or the
// store could not be consulted for known links.
func (c *Collector) Collect(ctx context.Context, category model.Category, queries []string, useSeeds bool) (Result, error) {
	terms := append([]string(nil), queries...)
	if useSeeds && c.seeds != nil {
		kws, err := c.seeds.Keywords(ctx)
		if err != nil {
			slog.Warn("collector: trend seeds failed", "category", category, "error", err)
		}
		terms = append(terms, kws...)
	}

	var res Result
	byLink := map[string]model.Candidate{}
	order := []string{}
	for i, q := range terms {
		if i > 0 && c.opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(c.opts.Pause):
			}
		}
		res.Queries++
		var items []model.Candidate
		err := retry.WithRetry(ctx, c.opts.Retry, func() error {
			var err error
			items, err = c.search.Search(ctx, q, c.opts.PerQuery)
			return err
		})
		if err != nil {
			res.Failed++
			slog.Warn("collector: query failed", "category", category, "query", q, "provider", c.search.Name(), "error", err)
			continue
		}
		res.Raw += len(items)
		for _, it := range items {
			key := search.NormalizeLink(it.Link)
			if key == "" {
				continue
			}
			if _, dup := byLink[key]; dup {
				res.Duplicates++
				continue
			}
			it.Link = strings.TrimSpace(it.Link)
			if it.Query == "" {
				it.Query = q
			}
			byLink[key] = it
			order = append(order, key)
		}
	}
	if res.Queries > 0 && res.Failed == res.Queries {
		return res, failure.Transient("collector: search", fmt.Errorf("all %d queries failed for %s", res.Queries, category))
	}
	if len(order) == 0 {
		return res, nil
	}

	now := c.now()
	if c.opts.MaxAge > 0 {
		cutoff := now.Add(-c.opts.MaxAge)
		kept := order[:0]
		for _, l := range order {
			if p := byLink[l].PublishedAt; p != nil && p.Before(cutoff) {
				res.TooOld++
				continue
			}
			kept = append(kept, l)
		}
		order = kept
	}

	stored, err := c.store.SelectLinks(ctx, category, now.Add(-c.opts.DedupWindow))
	if err != nil {
		return res, fmt.Errorf("collector: known links for %s: %w", category, err)
	}
	known := make(map[string]struct{}, len(stored))
	for l := range stored {
		known[search.NormalizeLink(l)] = struct{}{}
	}
	if c.seen != nil && len(order) > 0 {
		links := make([]string, len(order))
		for i, k := range order {
			links[i] = byLink[k].Link
		}
		seen, err := c.seen.FilterSeen(ctx, category, links)
		if err != nil {
			slog.Warn("collector: seen index unavailable", "category", category, "error", err)
		}
		for l := range seen {
			known[search.NormalizeLink(l)] = struct{}{}
		}
	}

	for _, l := range order {
		if _, ok := known[l]; ok {
			res.Known++
			continue
		}
		res.Candidates = append(res.Candidates, byLink[l])
		if c.opts.BatchSize > 0 && len(res.Candidates) >= c.opts.BatchSize {
			break
		}
	}
	slog.Info("collector: collected", "category", category, "queries", res.Queries, "failed", res.Failed,
		"raw", res.Raw, "duplicates", res.Duplicates, "known", res.Known, "too_old", res.TooOld, "candidates", len(res.Candidates))
	return res, nil
}
