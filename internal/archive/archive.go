// Package archive copies the top of each live category into the permanent
// archive.
package archive

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"hallyu-journalist/internal/model"
)

type Store interface {
	UpsertArchive(ctx context.Context, records []model.ArchiveRecord) (int, error)
}

type Archiver struct {
	store Store
	topN  int
	now   func() time.Time
}

func New(store Store, topN int) *Archiver {
	if topN <= 0 {
		topN = 10
	}
	return &Archiver{store: store, topN: topN, now: time.Now}
}

// Select returns the items worth archiving: rank <= topN, or the topN
// highest scores when no item carries a rank.
func Select(items []model.NewsItem, topN int) []model.NewsItem {
	var ranked []model.NewsItem
	anyRank := false
	for _, it := range items {
		if it.Rank == nil {
			continue
		}
		anyRank = true
		if *it.Rank <= topN {
			ranked = append(ranked, it)
		}
	}
	if anyRank {
		sort.SliceStable(ranked, func(i, j int) bool { return *ranked[i].Rank < *ranked[j].Rank })
		return ranked
	}
	byScore := make([]model.NewsItem, len(items))
	copy(byScore, items)
	sort.SliceStable(byScore, func(i, j int) bool {
		if byScore[i].Score != byScore[j].Score {
			return byScore[i].Score > byScore[j].Score
		}
		return byScore[i].CreatedAt.After(byScore[j].CreatedAt)
	})
	if len(byScore) > topN {
		byScore = byScore[:topN]
	}
	return byScore
}

// Archive upserts the selected survivors. Re-archiving an item updates it.
func (a *Archiver) Archive(ctx context.Context, category model.Category, survivors []model.NewsItem) (int, error) {
	picked := Select(survivors, a.topN)
	if len(picked) == 0 {
		return 0, nil
	}
	at := a.now()
	recs := make([]model.ArchiveRecord, 0, len(picked))
	for _, it := range picked {
		recs = append(recs, model.ArchiveFrom(it, at))
	}
	n, err := a.store.UpsertArchive(ctx, recs)
	if err != nil {
		slog.Warn("archive: upsert failed", "category", category, "records", len(recs), "error", err)
		return 0, err
	}
	slog.Info("archive: archived", "category", category, "records", n)
	return n, nil
}
