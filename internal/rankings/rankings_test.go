package rankings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/storage"
)

func TestFromItemsTopTen(t *testing.T) {
	pub := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	var items []model.NewsItem
	for i := 0; i < 12; i++ {
		items = append(items, model.NewsItem{Title: fmt.Sprint(i), Score: float64(i), Rank: model.IntPtr(12 - i), PublishedAt: &pub})
	}
	items[11].Keyword = "BLACKPINK"
	at := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	got := FromItems(model.KPop, items, at)
	if len(got) != Size {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Title != "11" || got[0].MetaInfo != "BLACKPINK" || got[0].Rank != 1 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].MetaInfo != "2026-03-02" {
		t.Fatalf("meta fallback = %q", got[1].MetaInfo)
	}
	if got[9].Rank != 10 || !got[9].UpdatedAt.Equal(at) {
		t.Fatalf("last = %+v", got[9])
	}
}

func TestReplaceSkipsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	Replace(ctx, mem, model.KPop, []model.RankingEntry{{Rank: 1, Title: "keep"}})
	if err := Replace(ctx, mem, model.KPop, nil); err != nil {
		t.Fatal(err)
	}
	got, _ := mem.ListRankings(ctx, model.KPop)
	if len(got) != 1 || got[0].Title != "keep" {
		t.Fatalf("got %+v", got)
	}
}
