// Package briefing builds one aggregated news item per run from the
// category's current top trend instead of curating individual articles.
package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hallyu-journalist/internal/ai"
	"hallyu-journalist/internal/curator"
	"hallyu-journalist/internal/failure"
	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/rankings"
	"hallyu-journalist/internal/scrape"
	"hallyu-journalist/internal/search"
)

type LLM interface {
	Each(ctx context.Context, op, system, user string, wantJSON bool, accept func(model, text string) bool) error
}

type Store interface {
	KeywordUsedSince(ctx context.Context, category model.Category, keyword string, since time.Time) (bool, error)
}

// Cooldown is the optional shared cooldown index.
type Cooldown interface {
	KeywordCooling(ctx context.Context, category model.Category, keyword string) (bool, error)
	MarkKeyword(ctx context.Context, category model.Category, keyword string, cooldown time.Duration) error
}

type Options struct {
	OmitLink      bool
	AdmissionMin  float64 // trends scoring below it are never written
	Cooldown      time.Duration
	SearchResults int
	SourceChars   int
}

// Trend is one entry of the category's top-10 trend list.
type Trend struct {
	Rank          int
	Title         string
	SearchKeyword string
	Meta          string
	Score         float64 // 0..10
}

type Result struct {
	Trends   []Trend
	Rankings []model.RankingEntry
	Target   Trend
	Item     *model.NewsItem
	Sources  int
}

type Briefer struct {
	llm       LLM
	search    search.Searcher
	extractor scrape.Extractor
	store     Store
	cooldown  Cooldown
	opts      Options
	now       func() time.Time
}

func New(llm LLM, s search.Searcher, ex scrape.Extractor, store Store, opts Options) *Briefer {
	if opts.Cooldown <= 0 {
		opts.Cooldown = 4 * time.Hour
	}
	if opts.SearchResults <= 0 {
		opts.SearchResults = 5
	}
	if opts.SourceChars <= 0 {
		opts.SourceChars = 6000
	}
	return &Briefer{llm: llm, search: s, extractor: ex, store: store, opts: opts, now: time.Now}
}

func (b *Briefer) WithCooldown(c Cooldown) *Briefer {
	b.cooldown = c
	return b
}

type rankingJSON struct {
	Rank            ai.Number `json:"rank"`
	DisplayTitleEn  string    `json:"display_title_en"`
	SearchKeywordKr string    `json:"search_keyword_kr"`
	Meta            string    `json:"meta"`
	Score           ai.Number `json:"score"`
}

type summaryJSON struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Brief ranks the category's trends from the candidate titles, then writes a
// briefing about the first trend that is not cooling down. Result.Rankings is
// filled even when no item could be written.
func (b *Briefer) Brief(ctx context.Context, category model.Category, rule string, cands []model.Candidate) (Result, error) {
	var res Result
	if len(cands) == 0 {
		return res, nil
	}
	trends, err := b.rankTrends(ctx, category, rule, cands)
	if err != nil {
		return res, err
	}
	res.Trends = trends
	at := b.now()
	for _, t := range trends {
		res.Rankings = append(res.Rankings, model.RankingEntry{
			Category: category, Rank: t.Rank, Title: t.Title, MetaInfo: t.Meta, Score: t.Score, UpdatedAt: at,
		})
	}

	target, ok := b.pickTarget(ctx, category, trends)
	if !ok {
		slog.Info("briefing: no trend meets admission score", "category", category, "min", b.opts.AdmissionMin)
		return res, nil
	}
	res.Target = target
	sources, link, image := b.gather(ctx, category, res.Target)
	res.Sources = len(sources)
	if len(sources) == 0 {
		return res, failure.NotFound("briefing: search", fmt.Errorf("no sources for %q", res.Target.SearchKeyword))
	}

	sum, err := b.summarize(ctx, category, res.Target, sources)
	if err != nil {
		return res, err
	}
	title := strings.TrimSpace(sum.Title)
	if title == "" {
		title = "News about " + res.Target.Title
	}
	item := model.NewsItem{
		Category: category,
		Keyword:  res.Target.Title,
		Title:    title,
		Summary:  strings.TrimSpace(sum.Summary),
		ImageURL: image,
		Score:    res.Target.Score,
	}
	if !b.opts.OmitLink {
		item.Link = model.StringPtr(link)
	}
	res.Item = &item
	slog.Info("briefing: written", "category", category, "keyword", res.Target.Title, "sources", res.Sources, "score", item.Score)
	return res, nil
}

func (b *Briefer) rankTrends(ctx context.Context, category model.Category, rule string, cands []model.Candidate) ([]Trend, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Task]\nAnalyze these %d news titles about %s.\n", len(cands), category)
	fmt.Fprintf(&sb, "Extract the top %d trends following these STRICT rules:\n%s\n\n", rankings.Size, rule)
	sb.WriteString("[Titles]\n")
	for _, c := range cands {
		sb.WriteString("- ")
		sb.WriteString(c.Title)
		sb.WriteString("\n")
	}
	sb.WriteString("\n[Output JSON]\n")
	sb.WriteString(`{"rankings":[{"rank":1,"display_title_en":"English title","search_keyword_kr":"Korean name for searching","meta":"Short info","score":95}]}`)
	sb.WriteString("\n")

	var trends []Trend
	err := b.llm.Each(ctx, "briefing: rank "+string(category), "You are a K-entertainment trend editor. You answer with JSON only.", sb.String(), true,
		func(m, text string) bool {
			var r struct {
				Rankings []rankingJSON `json:"rankings"`
			}
			if err := ai.DecodeJSON(text, &r); err != nil {
				slog.Warn("briefing: unparseable rankings", "category", category, "model", m, "error", err)
				return false
			}
			trends = cleanTrends(r.Rankings)
			return len(trends) > 0
		})
	return trends, err
}

func cleanTrends(in []rankingJSON) []Trend {
	seen := map[string]bool{}
	var out []Trend
	for _, r := range in {
		title := strings.TrimSpace(r.DisplayTitleEn)
		kw := strings.TrimSpace(r.SearchKeywordKr)
		if title == "" || seen[strings.ToLower(title)] {
			continue
		}
		if kw == "" {
			kw = title
		}
		seen[strings.ToLower(title)] = true
		out = append(out, Trend{
			Rank:          len(out) + 1,
			Title:         title,
			SearchKeyword: kw,
			Meta:          strings.TrimSpace(r.Meta),
			Score:         curator.Clamp(float64(r.Score), 0, 100) / 10,
		})
		if len(out) == rankings.Size {
			break
		}
	}
	return out
}

// pickTarget returns the first admissible trend outside its cooldown, or the
// first admissible trend when all are cooling. ok is false when no trend
// reaches the admission score.
func (b *Briefer) pickTarget(ctx context.Context, category model.Category, trends []Trend) (target Trend, ok bool) {
	var admissible []Trend
	for _, t := range trends {
		if t.Score >= b.opts.AdmissionMin {
			admissible = append(admissible, t)
		}
	}
	if len(admissible) == 0 {
		return Trend{}, false
	}
	since := b.now().Add(-b.opts.Cooldown)
	for _, t := range admissible {
		if b.cooldown != nil {
			cooling, err := b.cooldown.KeywordCooling(ctx, category, t.Title)
			if err != nil {
				slog.Warn("briefing: cooldown index unavailable", "category", category, "error", err)
			}
			if cooling {
				slog.Info("briefing: skip cooling keyword", "category", category, "keyword", t.Title)
				continue
			}
		}
		used, err := b.store.KeywordUsedSince(ctx, category, t.Title, since)
		if err != nil {
			slog.Warn("briefing: keyword lookup failed", "category", category, "keyword", t.Title, "error", err)
		}
		if used {
			slog.Info("briefing: skip recent keyword", "category", category, "keyword", t.Title)
			continue
		}
		return t, true
	}
	return admissible[0], true
}

func (b *Briefer) gather(ctx context.Context, category model.Category, t Trend) (sources []string, link string, image *string) {
	items, err := b.search.Search(ctx, t.SearchKeyword, b.opts.SearchResults)
	if err != nil {
		slog.Warn("briefing: targeted search failed", "category", category, "query", t.SearchKeyword, "error", err)
		return nil, "", nil
	}
	for _, it := range items {
		text := it.Snippet
		if b.extractor != nil {
			art := b.extractor.Extract(ctx, it.Link)
			if art.Text != "" {
				text = art.Text
			}
			if image == nil {
				image = art.ImageURL
			}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if link == "" {
			link = strings.TrimSpace(it.Link)
		}
		sources = append(sources, text)
	}
	return sources, link, image
}

func (b *Briefer) summarize(ctx context.Context, category model.Category, t Trend, sources []string) (summaryJSON, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Context]\nCategory: %s\nMain subject: %s\nPerson involved: %s\n\n", category, t.Title, t.SearchKeyword)
	sb.WriteString("[Source Articles (Korean)]\n")
	sb.WriteString(scrape.Truncate(strings.Join(sources, "\n---\n"), b.opts.SourceChars))
	sb.WriteString("\n\n[Task]\nWrite a news summary in ENGLISH.\n")
	fmt.Fprintf(&sb, "- Title: must be about '%s'.\n", t.Title)
	fmt.Fprintf(&sb, "- Summary: focus on why '%s' is in the news regarding '%s'.\n\n", t.SearchKeyword, t.Title)
	sb.WriteString("[Output JSON]\n")
	sb.WriteString(`{"title":"English Title","summary":"English Summary..."}`)
	sb.WriteString("\n")

	var out summaryJSON
	err := b.llm.Each(ctx, "briefing: summarize "+string(category), "You are a K-entertainment journalist. You answer with JSON only.", sb.String(), true,
		func(m, text string) bool {
			var s summaryJSON
			if err := ai.DecodeJSON(text, &s); err != nil || strings.TrimSpace(s.Summary) == "" {
				return false
			}
			out = s
			return true
		})
	return out, err
}

// MarkUsed starts the keyword's cooldown once its briefing is persisted.
func (b *Briefer) MarkUsed(ctx context.Context, category model.Category, keyword string) {
	if b.cooldown == nil {
		return
	}
	if err := b.cooldown.MarkKeyword(ctx, category, keyword, b.opts.Cooldown); err != nil {
		slog.Warn("briefing: mark cooldown failed", "category", category, "keyword", keyword, "error", err)
	}
}
