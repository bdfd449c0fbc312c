// Package slots keeps each category's live collection within its capacity.
package slots

import (
	"sort"
	"time"

	"hallyu-journalist/internal/model"
)

// Policy bounds a category's live collection.
type Policy struct {
	Capacity  int
	Staleness time.Duration
	// SkipRanks disables dense rank recomputation.
	SkipRanks bool
}

// Decision is the outcome of planning one category.
type Decision struct {
	Evict       []int64
	Survivors   []model.NewsItem
	RankUpdates []model.RankUpdate
	// StaleEvicted counts evictions made by the age tier.
	StaleEvicted int
}

// Plan decides which items to evict and which ranks to rewrite. Items older
// than now-Staleness go first, oldest first; if the collection is still over
// capacity the lowest scores go next. Plan does not mutate items.
func Plan(items []model.NewsItem, now time.Time, p Policy) Decision {
	pool := make([]model.NewsItem, len(items))
	copy(pool, items)

	var d Decision
	excess := len(pool) - p.Capacity
	if p.Capacity <= 0 {
		excess = 0
	}

	if excess > 0 {
		threshold := now.Add(-p.Staleness)
		var stale []model.NewsItem
		for _, it := range pool {
			if it.CreatedAt.Before(threshold) {
				stale = append(stale, it)
			}
		}
		sort.SliceStable(stale, func(i, j int) bool {
			if !stale[i].CreatedAt.Equal(stale[j].CreatedAt) {
				return stale[i].CreatedAt.Before(stale[j].CreatedAt)
			}
			return stale[i].ID < stale[j].ID
		})
		evicted := map[int64]bool{}
		for _, it := range stale {
			if excess == 0 {
				break
			}
			evicted[it.ID] = true
			d.Evict = append(d.Evict, it.ID)
			d.StaleEvicted++
			excess--
		}
		pool = without(pool, evicted)
	}

	if excess > 0 {
		byScore := make([]model.NewsItem, len(pool))
		copy(byScore, pool)
		sort.SliceStable(byScore, func(i, j int) bool {
			a, b := byScore[i], byScore[j]
			if a.Score != b.Score {
				return a.Score < b.Score
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
		evicted := map[int64]bool{}
		for _, it := range byScore[:excess] {
			evicted[it.ID] = true
			d.Evict = append(d.Evict, it.ID)
		}
		pool = without(pool, evicted)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if !p.SkipRanks {
		for i := range pool {
			rank := i + 1
			if pool[i].Rank == nil || *pool[i].Rank != rank {
				d.RankUpdates = append(d.RankUpdates, model.RankUpdate{ID: pool[i].ID, Rank: rank})
			}
			pool[i].Rank = model.IntPtr(rank)
		}
	}
	d.Survivors = pool
	return d
}

func without(items []model.NewsItem, drop map[int64]bool) []model.NewsItem {
	if len(drop) == 0 {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if !drop[it.ID] {
			out = append(out, it)
		}
	}
	return out
}
