// Package curator asks the LLM chain to select, translate, summarize and
// score a candidate batch.
package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"hallyu-journalist/internal/ai"
	"hallyu-journalist/internal/config"
	"hallyu-journalist/internal/model"
)

// LLM walks an ordered list of models until accept takes an answer.
type LLM interface {
	Each(ctx context.Context, op, system, user string, wantJSON bool, accept func(model, text string) bool) error
}

// Policy is the scoring policy of one category.
type Policy struct {
	Band        string
	Instruction string
}

type Options struct {
	BatchSize    int
	Keep         int
	AdmissionMin float64
	Policies     map[model.Category]Policy
}

// Result is the admitted items plus what was dropped on the way.
type Result struct {
	Items      []model.NewsItem
	Model      string
	Returned   int
	Invalid    int
	BelowMin   int
	Duplicates int
}

type Curator struct {
	llm  LLM
	opts Options
}

func New(llm LLM, opts Options) *Curator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 60
	}
	if opts.Keep <= 0 {
		opts.Keep = 30
	}
	return &Curator{llm: llm, opts: opts}
}

// PoliciesFrom builds per-category policies from configuration.
func PoliciesFrom(cfg *config.Config) map[model.Category]Policy {
	out := map[model.Category]Policy{}
	for _, c := range cfg.Categories {
		out[model.Category(c.Name)] = Policy{Band: c.ScoreBand, Instruction: c.ScoreInstruction}
	}
	return out
}

type article struct {
	OriginalIndex *ai.Number `json:"original_index"`
	EngTitle      string     `json:"eng_title"`
	Summary       string     `json:"summary"`
	Score         ai.Number  `json:"score"`
}

// Articles stay raw so one malformed entry does not sink the batch.
type response struct {
	Articles []json.RawMessage `json:"articles"`
}

// Curate returns the admitted items for the batch. Candidates beyond the
// batch size are ignored. The error is transient when no model produced a
// usable answer.
func (c *Curator) Curate(ctx context.Context, category model.Category, cands []model.Candidate) (Result, error) {
	var res Result
	if len(cands) == 0 {
		return res, nil
	}
	batch := cands
	if len(batch) > c.opts.BatchSize {
		batch = batch[:c.opts.BatchSize]
	}
	policy := c.opts.Policies[category]
	system := systemPrompt(category)
	user := userPrompt(category, batch, policy, c.opts.AdmissionMin, c.opts.Keep)

	var parsed response
	err := c.llm.Each(ctx, "curator: "+string(category), system, user, true, func(m, text string) bool {
		var r response
		if err := ai.DecodeJSON(text, &r); err != nil {
			slog.Warn("curator: unparseable answer", "category", category, "model", m, "error", err)
			return false
		}
		if len(r.Articles) == 0 {
			return false
		}
		parsed = r
		res.Model = m
		return true
	})
	if err != nil {
		return res, fmt.Errorf("curate %s: %w", category, err)
	}

	res.Returned = len(parsed.Articles)
	usedIdx := map[int]bool{}
	usedLink := map[string]bool{}
	for _, raw := range parsed.Articles {
		var a article
		if err := json.Unmarshal(raw, &a); err != nil {
			slog.Debug("curator: malformed article", "category", category, "error", err)
			res.Invalid++
			continue
		}
		idx, ok := index(a.OriginalIndex, len(batch))
		if !ok || usedIdx[idx] {
			res.Invalid++
			continue
		}
		usedIdx[idx] = true
		if math.IsNaN(float64(a.Score)) {
			res.Invalid++
			continue
		}
		score := Clamp(float64(a.Score), 0, 10)
		if score < c.opts.AdmissionMin {
			res.BelowMin++
			continue
		}
		src := batch[idx]
		if usedLink[src.Link] {
			res.Duplicates++
			continue
		}
		usedLink[src.Link] = true

		title := strings.TrimSpace(a.EngTitle)
		if title == "" {
			title = src.Title
		}
		summary := strings.TrimSpace(a.Summary)
		if summary == "" {
			summary = src.Snippet
		}
		res.Items = append(res.Items, model.NewsItem{
			Category:    category,
			Keyword:     src.Query,
			Title:       title,
			Summary:     summary,
			Link:        model.StringPtr(src.Link),
			ImageURL:    src.ImageURL,
			Score:       score,
			PublishedAt: src.PublishedAt,
		})
	}
	slog.Info("curator: curated", "category", category, "model", res.Model, "batch", len(batch), "returned", res.Returned,
		"admitted", len(res.Items), "invalid", res.Invalid, "below_min", res.BelowMin, "duplicates", res.Duplicates)
	return res, nil
}

// index validates original_index against the batch length.
func index(n *ai.Number, size int) (int, bool) {
	if n == nil {
		return 0, false
	}
	f := float64(*n)
	if math.IsNaN(f) || f != math.Trunc(f) || f < 0 || f >= float64(size) {
		return 0, false
	}
	return int(f), true
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
