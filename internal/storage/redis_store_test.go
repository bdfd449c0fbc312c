package storage

import (
	"context"
	"testing"
	"time"

	"hallyu-journalist/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisSeenLinksExpire(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	if err := s.MarkSeen(ctx, model.KPop, []string{"https://a", "https://b"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	seen, err := s.FilterSeen(ctx, model.KPop, []string{"https://a", "https://c"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := seen["https://a"]; !ok || len(seen) != 1 {
		t.Fatalf("seen = %v", seen)
	}
	// other categories are independent
	other, _ := s.FilterSeen(ctx, model.KDrama, []string{"https://a"})
	if len(other) != 0 {
		t.Fatalf("unexpected cross-category hit: %v", other)
	}
	mr.FastForward(2 * time.Hour)
	seen, _ = s.FilterSeen(ctx, model.KPop, []string{"https://a"})
	if len(seen) != 0 {
		t.Fatalf("expected expiry, got %v", seen)
	}
}

func TestRedisKeywordCooldown(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	if err := s.MarkKeyword(ctx, model.KDrama, "Queen of Tears", 4*time.Hour); err != nil {
		t.Fatal(err)
	}
	cooling, err := s.KeywordCooling(ctx, model.KDrama, " queen of tears")
	if err != nil || !cooling {
		t.Fatalf("cooling = %v, %v", cooling, err)
	}
	mr.FastForward(5 * time.Hour)
	cooling, _ = s.KeywordCooling(ctx, model.KDrama, "Queen of Tears")
	if cooling {
		t.Fatal("cooldown should have ended")
	}
}

func TestRedisNextCategoryRotates(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	cats := []model.Category{model.KPop, model.KDrama, model.KMovie}
	var got []model.Category
	for i := 0; i < 4; i++ {
		c, err := s.NextCategory(ctx, cats)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, c)
	}
	want := []model.Category{model.KPop, model.KDrama, model.KMovie, model.KPop}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation = %v, want %v", got, want)
		}
	}
}
