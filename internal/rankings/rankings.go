// Package rankings maintains the per-category sidebar projection.
package rankings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hallyu-journalist/internal/model"
)

const Size = 10

type Store interface {
	ReplaceRankings(ctx context.Context, category model.Category, entries []model.RankingEntry) error
}

// FromItems projects the top items of a category, best first.
func FromItems(category model.Category, items []model.NewsItem, at time.Time) []model.RankingEntry {
	sorted := make([]model.NewsItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Rank, sorted[j].Rank
		if ri != nil && rj != nil && *ri != *rj {
			return *ri < *rj
		}
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > Size {
		sorted = sorted[:Size]
	}
	out := make([]model.RankingEntry, 0, len(sorted))
	for i, it := range sorted {
		out = append(out, model.RankingEntry{
			Category:  category,
			Rank:      i + 1,
			Title:     it.Title,
			MetaInfo:  metaInfo(it),
			Score:     it.Score,
			UpdatedAt: at,
		})
	}
	return out
}

func metaInfo(it model.NewsItem) string {
	if it.Keyword != "" {
		return it.Keyword
	}
	if it.PublishedAt != nil {
		return it.PublishedAt.Format("2006-01-02")
	}
	return it.CreatedAt.Format("2006-01-02")
}

// Replace swaps the category's rankings wholesale. An empty list is ignored
// so a quiet run does not blank the sidebar.
func Replace(ctx context.Context, store Store, category model.Category, entries []model.RankingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := store.ReplaceRankings(ctx, category, entries); err != nil {
		return fmt.Errorf("rankings %s: %w", category, err)
	}
	return nil
}
