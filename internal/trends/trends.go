// Package trends extracts the trending keyword snapshot from recent titles.
package trends

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"hallyu-journalist/internal/ai"
	"hallyu-journalist/internal/model"
)

type LLM interface {
	Each(ctx context.Context, op, system, user string, wantJSON bool, accept func(model, text string) bool) error
}

type Store interface {
	RecentTitles(ctx context.Context, limit int) ([]string, error)
	ReplaceTrendingKeywords(ctx context.Context, entries []model.TrendingKeyword) error
}

type Options struct {
	TitleLimit  int
	MaxKeywords int
	Exclude     []string
}

type Analyzer struct {
	llm   LLM
	store Store
	opts  Options
	now   func() time.Time
}

func New(llm LLM, store Store, opts Options) *Analyzer {
	if opts.TitleLimit <= 0 {
		opts.TitleLimit = 100
	}
	if opts.MaxKeywords <= 0 {
		opts.MaxKeywords = 10
	}
	return &Analyzer{llm: llm, store: store, opts: opts, now: time.Now}
}

type keyword struct {
	Keyword string    `json:"keyword"`
	Count   ai.Number `json:"count"`
	Rank    ai.Number `json:"rank"`
}

type response struct {
	Keywords []keyword `json:"keywords"`
}

func (a *Analyzer) prompt(titles []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following K-entertainment news titles and identify the TOP %d trending keywords.\n", a.opts.MaxKeywords)
	b.WriteString("[Rules]\n")
	b.WriteString("1. Extract specific entities: person names, group names, drama or movie titles.\n")
	b.WriteString("2. Merge related concepts: \"BTS Jin\" instead of \"Jin\".\n")
	if len(a.opts.Exclude) > 0 {
		fmt.Fprintf(&b, "3. EXCLUDE generic words: %s.\n", strings.Join(a.opts.Exclude, ", "))
	}
	b.WriteString("4. Give each keyword an estimated relative importance 'count' between 1 and 100.\n\n")
	b.WriteString("[Titles]\n")
	for _, t := range titles {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	b.WriteString("\n[Output Format JSON]\n")
	b.WriteString(`{"keywords":[{"keyword":"Most Mentioned Keyword","count":95,"rank":1},{"keyword":"Second Keyword","count":80,"rank":2}]}`)
	b.WriteString("\n")
	return b.String()
}

// Analyze replaces the keyword snapshot. With no titles or no usable
// keywords the previous snapshot is left in place and nil is returned.
func (a *Analyzer) Analyze(ctx context.Context) ([]model.TrendingKeyword, error) {
	titles, err := a.store.RecentTitles(ctx, a.opts.TitleLimit)
	if err != nil {
		return nil, fmt.Errorf("trends: recent titles: %w", err)
	}
	if len(titles) == 0 {
		slog.Info("trends: no titles, keeping snapshot")
		return nil, nil
	}

	var entries []model.TrendingKeyword
	err = a.llm.Each(ctx, "trends: analyze", "You are a K-trend analyst. You answer with JSON only.", a.prompt(titles), true,
		func(m, text string) bool {
			var r response
			if err := ai.DecodeJSON(text, &r); err != nil {
				slog.Warn("trends: unparseable answer", "model", m, "error", err)
				return false
			}
			entries = Clean(r.Keywords, a.opts.Exclude, a.opts.MaxKeywords, a.now())
			return len(entries) > 0
		})
	if err != nil {
		return nil, err
	}
	if err := a.store.ReplaceTrendingKeywords(ctx, entries); err != nil {
		return nil, fmt.Errorf("trends: replace: %w", err)
	}
	slog.Info("trends: replaced snapshot", "titles", len(titles), "keywords", len(entries))
	return entries, nil
}

// Clean drops excluded, empty and duplicate keywords, clamps counts to
// 1..100, caps the list and assigns dense ranks in answer order.
func Clean(kws []keyword, exclude []string, max int, at time.Time) []model.TrendingKeyword {
	skip := map[string]bool{}
	for _, e := range exclude {
		skip[strings.ToLower(strings.TrimSpace(e))] = true
	}
	seen := map[string]bool{}
	var out []model.TrendingKeyword
	for _, k := range kws {
		name := strings.Join(strings.Fields(k.Keyword), " ")
		key := strings.ToLower(name)
		if name == "" || skip[key] || seen[key] {
			continue
		}
		seen[key] = true
		count := int(math.Round(float64(k.Count)))
		if count < 1 {
			count = 1
		}
		if count > 100 {
			count = 100
		}
		out = append(out, model.TrendingKeyword{Keyword: name, Count: count, Rank: len(out) + 1, UpdatedAt: at})
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
