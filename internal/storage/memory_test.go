package storage

import (
	"context"
	"testing"
	"time"

	"hallyu-journalist/internal/model"
)

func TestMemoryUpsertKeepsIdentity(t *testing.T) {
	m := NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return base })
	ctx := context.Background()
	link := "https://a"

	m.UpsertItems(ctx, []model.NewsItem{{Category: model.KPop, Title: "v1", Link: &link, Score: 5}})
	items, _ := m.SelectItems(ctx, model.KPop)
	id := items[0].ID
	m.React(ctx, id, true)

	m.SetClock(func() time.Time { return base.Add(time.Hour) })
	m.UpsertItems(ctx, []model.NewsItem{{Category: model.KPop, Title: "v2", Link: &link, Score: 6}})

	items, _ = m.SelectItems(ctx, model.KPop)
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	got := items[0]
	if got.ID != id || got.Title != "v2" || got.Likes != 1 || !got.CreatedAt.Equal(base) {
		t.Fatalf("unexpected item after re-upsert: %+v", got)
	}
}

func TestMemoryUpsertKeepsOriginalCategory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	link := "https://news.example.com/shared"

	m.UpsertItems(ctx, []model.NewsItem{{Category: model.KPop, Title: "first", Link: &link, Score: 6}})
	m.UpsertItems(ctx, []model.NewsItem{{Category: model.KDrama, Title: "second", Link: &link, Score: 8}})

	pop, _ := m.SelectItems(ctx, model.KPop)
	drama, _ := m.SelectItems(ctx, model.KDrama)
	if len(pop) != 1 || len(drama) != 0 {
		t.Fatalf("k-pop = %+v, k-drama = %+v", pop, drama)
	}
	if pop[0].Title != "second" || pop[0].Score != 8 {
		t.Fatalf("content not refreshed: %+v", pop[0])
	}
}

func TestMemoryArchiveIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rec := model.ArchiveRecord{Category: model.KDrama, Keyword: "kw", Title: "t", Score: 9}
	m.UpsertArchive(ctx, []model.ArchiveRecord{rec})
	m.UpsertArchive(ctx, []model.ArchiveRecord{rec})
	out, total, _ := m.ListArchive(ctx, "", 10, 0)
	if total != 1 || len(out) != 1 {
		t.Fatalf("archive total = %d, len = %d", total, len(out))
	}
}

func TestMemorySelectLinksWindow(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	old, fresh := "https://old", "https://fresh"
	m.UpsertItems(ctx, []model.NewsItem{
		{Category: model.KPop, Title: "o", Link: &old, CreatedAt: now.Add(-100 * time.Hour)},
		{Category: model.KPop, Title: "f", Link: &fresh, CreatedAt: now.Add(-time.Hour)},
	})
	links, _ := m.SelectLinks(ctx, model.KPop, now.Add(-72*time.Hour))
	if _, ok := links[fresh]; !ok {
		t.Fatalf("fresh link missing: %v", links)
	}
	if _, ok := links[old]; ok {
		t.Fatalf("old link should be outside the window: %v", links)
	}
}

func TestMemoryListNewsOrdersByRank(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.UpsertItems(ctx, []model.NewsItem{
		{Category: model.KMovie, Keyword: "a", Title: "a", Score: 3},
		{Category: model.KMovie, Keyword: "b", Title: "b", Score: 9},
	})
	items, _ := m.SelectItems(ctx, model.KMovie)
	var ups []model.RankUpdate
	for _, it := range items {
		r := 2
		if it.Title == "b" {
			r = 1
		}
		ups = append(ups, model.RankUpdate{ID: it.ID, Rank: r})
	}
	m.UpdateRanks(ctx, ups)
	list, _ := m.ListNews(ctx, model.KMovie, 10)
	if list[0].Title != "b" || list[1].Title != "a" {
		t.Fatalf("order = %s, %s", list[0].Title, list[1].Title)
	}
}
