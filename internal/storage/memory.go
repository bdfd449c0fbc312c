package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hallyu-journalist/internal/model"
)

// Memory is an in-process Store used for dry runs and tests.
type Memory struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int64
	items    map[int64]model.NewsItem
	rankings map[model.Category][]model.RankingEntry
	archive  map[string]model.ArchiveRecord
	keywords []model.TrendingKeyword
}

func NewMemory() *Memory {
	return &Memory{
		now:      time.Now,
		items:    map[int64]model.NewsItem{},
		rankings: map[model.Category][]model.RankingEntry{},
		archive:  map[string]model.ArchiveRecord{},
	}
}

// SetClock replaces the time source.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) SelectItems(_ context.Context, category model.Category) ([]model.NewsItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.NewsItem
	for _, it := range m.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpsertItems matches the Postgres upsert: a known dedup key keeps its row's
// id, category, created_at, reactions and rank.
func (m *Memory) UpsertItems(_ context.Context, items []model.NewsItem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey := map[string]int64{}
	for id, it := range m.items {
		byKey[it.DedupKey()] = id
	}
	for _, it := range items {
		if id, ok := byKey[it.DedupKey()]; ok {
			old := m.items[id]
			it.ID = id
			it.Category = old.Category
			it.CreatedAt = old.CreatedAt
			it.Likes, it.Dislikes = old.Likes, old.Dislikes
			it.Rank = old.Rank
			if it.ImageURL == nil {
				it.ImageURL = old.ImageURL
			}
			if it.PublishedAt == nil {
				it.PublishedAt = old.PublishedAt
			}
			m.items[id] = it
			continue
		}
		m.nextID++
		it.ID = m.nextID
		if it.CreatedAt.IsZero() {
			it.CreatedAt = m.now()
		}
		m.items[it.ID] = it
		byKey[it.DedupKey()] = it.ID
	}
	return len(items), nil
}

func (m *Memory) DeleteItems(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.items, id)
	}
	return nil
}

func (m *Memory) UpdateRanks(_ context.Context, updates []model.RankUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		it, ok := m.items[u.ID]
		if !ok {
			continue
		}
		it.Rank = model.IntPtr(u.Rank)
		m.items[u.ID] = it
	}
	return nil
}

func (m *Memory) SelectLinks(_ context.Context, category model.Category, since time.Time) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]struct{}{}
	for _, it := range m.items {
		if it.Category == category && it.Link != nil && !it.CreatedAt.Before(since) {
			out[*it.Link] = struct{}{}
		}
	}
	for _, r := range m.archive {
		if r.Category == category && r.Link != nil && !r.ArchivedAt.Before(since) {
			out[*r.Link] = struct{}{}
		}
	}
	return out, nil
}

func (m *Memory) ReplaceRankings(_ context.Context, category model.Category, entries []model.RankingEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.RankingEntry, len(entries))
	copy(cp, entries)
	for i := range cp {
		cp[i].Category = category
		if cp[i].UpdatedAt.IsZero() {
			cp[i].UpdatedAt = m.now()
		}
	}
	m.rankings[category] = cp
	return nil
}

func (m *Memory) UpsertArchive(_ context.Context, records []model.ArchiveRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if r.ArchivedAt.IsZero() {
			r.ArchivedAt = m.now()
		}
		m.archive[r.DedupKey()] = r
	}
	return len(records), nil
}

func (m *Memory) ReplaceTrendingKeywords(_ context.Context, entries []model.TrendingKeyword) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywords = make([]model.TrendingKeyword, len(entries))
	copy(m.keywords, entries)
	return nil
}

func (m *Memory) RecentTitles(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	all := make([]model.NewsItem, 0, len(m.items))
	for _, it := range m.items {
		all = append(all, it)
	}
	m.mu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	var out []string
	for _, it := range all {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, it.Title)
	}
	return out, nil
}

func (m *Memory) KeywordUsedSince(_ context.Context, category model.Category, keyword string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kw := strings.ToLower(strings.TrimSpace(keyword))
	for _, it := range m.items {
		if it.Category == category && strings.ToLower(it.Keyword) == kw && !it.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListNews(ctx context.Context, category model.Category, limit int) ([]model.NewsItem, error) {
	items, _ := m.SelectItems(ctx, category)
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Rank, items[j].Rank
		if (ri == nil) != (rj == nil) {
			return ri != nil
		}
		if ri != nil && *ri != *rj {
			return *ri < *rj
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *Memory) GetNews(_ context.Context, id int64) (*model.NewsItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (m *Memory) ListRankings(_ context.Context, category model.Category) ([]model.RankingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RankingEntry, len(m.rankings[category]))
	copy(out, m.rankings[category])
	return out, nil
}

func (m *Memory) ListKeywords(context.Context) ([]model.TrendingKeyword, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TrendingKeyword, len(m.keywords))
	copy(out, m.keywords)
	return out, nil
}

func (m *Memory) ListArchive(_ context.Context, category model.Category, limit, offset int) ([]model.ArchiveRecord, int, error) {
	m.mu.Lock()
	var all []model.ArchiveRecord
	for _, r := range m.archive {
		if category == "" || r.Category == category {
			all = append(all, r)
		}
	}
	m.mu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ArchivedAt.Equal(all[j].ArchivedAt) {
			return all[i].ArchivedAt.After(all[j].ArchivedAt)
		}
		return all[i].DedupKey() < all[j].DedupKey()
	})
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *Memory) React(_ context.Context, id int64, like bool) (*model.NewsItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if like {
		it.Likes++
	} else {
		it.Dislikes++
	}
	m.items[id] = it
	return &it, nil
}
