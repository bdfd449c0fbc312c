// Package pipeline runs collection, curation and slot management for each
// category in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hallyu-journalist/internal/archive"
	"hallyu-journalist/internal/briefing"
	"hallyu-journalist/internal/collector"
	"hallyu-journalist/internal/config"
	"hallyu-journalist/internal/curator"
	"hallyu-journalist/internal/enrich"
	"hallyu-journalist/internal/failure"
	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/rankings"
	"hallyu-journalist/internal/slots"
	"hallyu-journalist/internal/storage"
)

// SeenMarker records links offered to the curator.
type SeenMarker interface {
	MarkSeen(ctx context.Context, category model.Category, links []string, ttl time.Duration) error
}

// Budget is reset at the start of every run.
type Budget interface {
	ResetBudget()
}

// Deps are the constructed components. Enricher, Briefer, Seen and Budget
// are optional.
type Deps struct {
	Store     storage.Store
	Collector *collector.Collector
	Enricher  *enrich.Enricher
	Curator   *curator.Curator
	Briefer   *briefing.Briefer
	Slots     *slots.Manager
	Archiver  *archive.Archiver
	Seen      SeenMarker
	SeenTTL   time.Duration
	Budget    Budget
}

type Runner struct {
	deps       Deps
	categories map[model.Category]config.CategoryConfig
	order      []model.Category
	now        func() time.Time
}

func New(cfg *config.Config, deps Deps) *Runner {
	r := &Runner{deps: deps, categories: map[model.Category]config.CategoryConfig{}, now: time.Now}
	for _, c := range cfg.Categories {
		cat := model.Category(c.Name)
		r.categories[cat] = c
		r.order = append(r.order, cat)
	}
	return r
}

// Categories returns the configured categories in rotation order.
func (r *Runner) Categories() []model.Category {
	return append([]model.Category(nil), r.order...)
}

// RunAll processes the given categories (all when empty) one after another
// under a single run id. It stops early only on a configuration error.
func (r *Runner) RunAll(ctx context.Context, categories []model.Category) ([]Report, error) {
	if len(categories) == 0 {
		categories = r.order
	}
	runID := uuid.NewString()
	if r.deps.Budget != nil {
		r.deps.Budget.ResetBudget()
	}
	var reports []Report
	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := r.run(ctx, runID, cat)
		reports = append(reports, rep)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// RunCategory processes one category under a fresh run id.
func (r *Runner) RunCategory(ctx context.Context, category model.Category) (Report, error) {
	if r.deps.Budget != nil {
		r.deps.Budget.ResetBudget()
	}
	return r.run(ctx, uuid.NewString(), category)
}

func (r *Runner) run(ctx context.Context, runID string, category model.Category) (rep Report, err error) {
	rep = Report{RunID: runID, Category: category, StartedAt: r.now()}
	defer func() {
		rep.Duration = time.Since(rep.StartedAt)
		rep.Log()
	}()

	cc, ok := r.categories[category]
	if !ok {
		err = failure.Config("pipeline", "unknown category %q", category)
		rep.fail(StageCollect, err)
		return rep, err
	}
	rep.Mode = cc.Mode
	if rep.Mode == "" {
		rep.Mode = config.ModeCurate
	}
	slog.Info("pipeline: category start", "run_id", runID, "category", category, "mode", rep.Mode)

	// collect
	col, err := r.deps.Collector.Collect(ctx, category, cc.Queries, cc.TrendSeeds)
	if err != nil {
		rep.fail(StageCollect, err)
	}
	cands := col.Candidates
	rep.Candidates = len(cands)

	var (
		fresh     []model.NewsItem
		entries   []model.RankingEntry
		briefItem *model.NewsItem
	)
	if rep.Mode == config.ModeBriefing && r.deps.Briefer != nil {
		res, err := r.deps.Briefer.Brief(ctx, category, cc.BriefingRule, cands)
		if err != nil {
			rep.fail(StageBriefing, err)
			if failure.IsFatal(err) {
				return rep, err
			}
		}
		entries = res.Rankings
		if res.Item != nil {
			briefItem = res.Item
			fresh = []model.NewsItem{*res.Item}
		}
	} else if len(cands) > 0 {
		if r.deps.Enricher != nil {
			cands, rep.Enriched = r.deps.Enricher.Enrich(ctx, cands)
		}
		res, err := r.deps.Curator.Curate(ctx, category, cands)
		if err != nil {
			rep.fail(StageCurate, err)
			if failure.IsFatal(err) {
				return rep, err
			}
		}
		rep.Model = res.Model
		fresh = res.Items
		rep.Curated = len(fresh)
		if err == nil {
			r.markSeen(ctx, &rep, category, cands)
		}
	}

	// upsert
	if len(fresh) > 0 {
		n, err := r.deps.Store.UpsertItems(ctx, fresh)
		if err != nil {
			rep.fail(StageUpsert, err)
		}
		rep.Upserted = n
		if err == nil && briefItem != nil {
			r.deps.Briefer.MarkUsed(ctx, category, briefItem.Keyword)
		}
	}

	// slots
	dec, err := r.deps.Slots.Apply(ctx, category)
	if err != nil {
		rep.fail(StageSlots, err)
	}
	rep.Evicted = len(dec.Evict)
	rep.RankUpdates = len(dec.RankUpdates)

	// rankings
	if rep.Mode != config.ModeBriefing {
		entries = rankings.FromItems(category, dec.Survivors, r.now())
	}
	if err := rankings.Replace(ctx, r.deps.Store, category, entries); err != nil {
		rep.fail(StageRankings, err)
	} else {
		rep.Rankings = len(entries)
	}

	// archive
	if r.deps.Archiver != nil {
		n, err := r.deps.Archiver.Archive(ctx, category, dec.Survivors)
		if err != nil {
			rep.fail(StageArchive, err)
		}
		rep.Archived = n
	}
	return rep, nil
}

func (r *Runner) markSeen(ctx context.Context, rep *Report, category model.Category, cands []model.Candidate) {
	if r.deps.Seen == nil || len(cands) == 0 {
		return
	}
	links := make([]string, 0, len(cands))
	for _, c := range cands {
		links = append(links, c.Link)
	}
	if err := r.deps.Seen.MarkSeen(ctx, category, links, r.deps.SeenTTL); err != nil {
		rep.fail(StageSeen, err)
	}
}

// ArchiveOnly re-archives the current top items of a category.
func (r *Runner) ArchiveOnly(ctx context.Context, category model.Category) (int, error) {
	if r.deps.Archiver == nil {
		return 0, errors.New("pipeline: archiver not configured")
	}
	items, err := r.deps.Store.SelectItems(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", category, err)
	}
	return r.deps.Archiver.Archive(ctx, category, items)
}
