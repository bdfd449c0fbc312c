package slots

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/storage"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var policy = Policy{Capacity: 30, Staleness: 24 * time.Hour}

func fresh(n int, startID int64, score float64) []model.NewsItem {
	out := make([]model.NewsItem, n)
	for i := range out {
		out[i] = model.NewsItem{
			ID:        startID + int64(i),
			Category:  model.KCulture,
			Title:     fmt.Sprintf("item %d", startID+int64(i)),
			Link:      model.StringPtr(fmt.Sprintf("https://news.example.com/%d", startID+int64(i))),
			Score:     score,
			CreatedAt: now.Add(-time.Duration(i+1) * time.Minute),
		}
	}
	return out
}

func ids(d Decision) map[int64]bool {
	m := map[int64]bool{}
	for _, id := range d.Evict {
		m[id] = true
	}
	return m
}

func TestPlanUnderCapacityEvictsNothing(t *testing.T) {
	items := fresh(12, 1, 6)
	d := Plan(items, now, policy)
	if len(d.Evict) != 0 {
		t.Fatalf("evicted %v", d.Evict)
	}
	if len(d.Survivors) != 12 {
		t.Fatalf("survivors = %d", len(d.Survivors))
	}
}

func TestPlanAgePriority(t *testing.T) {
	items := fresh(30, 1, 3)
	stale := model.NewsItem{ID: 100, Category: model.KCulture, Score: 10, CreatedAt: now.Add(-25 * time.Hour)}
	items = append(items, stale)

	d := Plan(items, now, policy)
	if len(d.Evict) != 1 || d.Evict[0] != 100 {
		t.Fatalf("evict = %v, want [100]", d.Evict)
	}
	if d.StaleEvicted != 1 {
		t.Fatalf("stale evicted = %d", d.StaleEvicted)
	}
}

func TestPlanStaleOldestFirstStopsAtCapacity(t *testing.T) {
	items := fresh(28, 1, 5)
	for i := 0; i < 4; i++ {
		items = append(items, model.NewsItem{ID: int64(200 + i), Score: 9, CreatedAt: now.Add(-time.Duration(30+i) * time.Hour)})
	}
	d := Plan(items, now, policy)
	got := ids(d)
	// 32 items, 2 over: the two oldest stale items go
	if len(got) != 2 || !got[203] || !got[202] {
		t.Fatalf("evict = %v, want 203 and 202", d.Evict)
	}
}

func TestPlanScorePriority(t *testing.T) {
	items := fresh(30, 1, 7)
	items = append(items,
		model.NewsItem{ID: 50, Score: 4.1, CreatedAt: now.Add(-time.Hour)},
		model.NewsItem{ID: 51, Score: 4.2, CreatedAt: now.Add(-time.Hour)},
		model.NewsItem{ID: 52, Score: 9.5, CreatedAt: now.Add(-time.Hour)},
	)
	d := Plan(items, now, policy)
	got := ids(d)
	if len(got) != 3 || !got[50] || !got[51] {
		t.Fatalf("evict = %v", d.Evict)
	}
	if got[52] {
		t.Fatal("highest score must survive")
	}
	if len(d.Survivors) != 30 {
		t.Fatalf("survivors = %d", len(d.Survivors))
	}
}

func TestPlanScoreTiesDeterministic(t *testing.T) {
	items := fresh(33, 1, 5)
	first := Plan(items, now, policy)
	for i := 0; i < 5; i++ {
		again := Plan(items, now, policy)
		if fmt.Sprint(again.Evict) != fmt.Sprint(first.Evict) {
			t.Fatalf("run %d evicted %v, first run %v", i, again.Evict, first.Evict)
		}
	}
	// equal scores: the oldest go first
	got := ids(first)
	for _, id := range []int64{31, 32, 33} {
		if !got[id] {
			t.Fatalf("expected oldest ids evicted, got %v", first.Evict)
		}
	}
}

func TestPlanCultureScenario(t *testing.T) {
	items := fresh(28, 1, 7)
	items[5].Score = 5.5
	items = append(items,
		model.NewsItem{ID: 101, Score: 8.5, CreatedAt: now},
		model.NewsItem{ID: 102, Score: 6.0, CreatedAt: now},
		model.NewsItem{ID: 103, Score: 4.0, CreatedAt: now},
	)
	d := Plan(items, now, policy)
	if len(d.Evict) != 1 || d.Evict[0] != 103 {
		t.Fatalf("evict = %v, want [103]", d.Evict)
	}
	if len(d.Survivors) != 30 {
		t.Fatalf("survivors = %d", len(d.Survivors))
	}
}

func TestPlanFullAndStaleIsNoop(t *testing.T) {
	var items []model.NewsItem
	for i := 0; i < 28; i++ {
		items = append(items, model.NewsItem{ID: int64(i + 1), Score: 5, CreatedAt: now.Add(-48 * time.Hour)})
	}
	items = append(items, fresh(2, 40, 6)...)
	d := Plan(items, now, policy)
	if len(d.Evict) != 0 {
		t.Fatalf("evicted %v at capacity", d.Evict)
	}
	if len(d.Survivors) != 30 {
		t.Fatalf("survivors = %d", len(d.Survivors))
	}
}

func TestPlanDenseRanksOnlyChanged(t *testing.T) {
	items := []model.NewsItem{
		{ID: 1, Score: 9, CreatedAt: now, Rank: model.IntPtr(1)},
		{ID: 2, Score: 5, CreatedAt: now, Rank: model.IntPtr(2)},
		{ID: 3, Score: 7, CreatedAt: now},
	}
	d := Plan(items, now, policy)
	want := map[int64]int{3: 2, 2: 3}
	if len(d.RankUpdates) != len(want) {
		t.Fatalf("updates = %+v", d.RankUpdates)
	}
	for _, u := range d.RankUpdates {
		if want[u.ID] != u.Rank {
			t.Fatalf("update %+v unexpected", u)
		}
	}
	for i, s := range d.Survivors {
		if s.Rank == nil || *s.Rank != i+1 {
			t.Fatalf("survivor %d rank = %v", i, s.Rank)
		}
	}
	if items[2].Rank != nil {
		t.Fatal("Plan must not mutate its input")
	}
}

func TestPlanSkipRanks(t *testing.T) {
	d := Plan(fresh(3, 1, 5), now, Policy{Capacity: 30, Staleness: 24 * time.Hour, SkipRanks: true})
	if len(d.RankUpdates) != 0 {
		t.Fatalf("updates = %+v", d.RankUpdates)
	}
}

type failingDelete struct {
	*storage.Memory
}

func (failingDelete) DeleteItems(context.Context, []int64) error { return errors.New("connection reset") }

func TestManagerApply(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	mem.UpsertItems(ctx, fresh(33, 1, 5))
	m := NewManager(mem, policy)
	m.now = func() time.Time { return now }

	d, err := m.Apply(ctx, model.KCulture)
	if err != nil {
		t.Fatal(err)
	}
	left, _ := mem.SelectItems(ctx, model.KCulture)
	if len(left) != 30 || len(d.Evict) != 3 {
		t.Fatalf("left = %d, evicted = %d", len(left), len(d.Evict))
	}
	for _, it := range left {
		if it.Rank == nil {
			t.Fatalf("item %d has no rank", it.ID)
		}
	}
}

func TestManagerApplyDeleteFailureIsReported(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	mem.UpsertItems(ctx, fresh(31, 1, 5))
	m := NewManager(failingDelete{mem}, policy)
	m.now = func() time.Time { return now }

	d, err := m.Apply(ctx, model.KCulture)
	if err == nil {
		t.Fatal("expected delete error")
	}
	if len(d.Evict) != 1 {
		t.Fatalf("decision should still be returned, got %+v", d.Evict)
	}
	left, _ := mem.SelectItems(ctx, model.KCulture)
	if len(left) != 31 {
		t.Fatalf("left = %d, want 31 until the next run", len(left))
	}
}
