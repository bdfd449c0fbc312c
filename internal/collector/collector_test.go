package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/storage"
)

type fakeSearch struct {
	byQuery map[string][]model.Candidate
	fail    map[string]bool
	queries []string
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(_ context.Context, q string, _ int) ([]model.Candidate, error) {
	f.queries = append(f.queries, q)
	if f.fail[q] {
		return nil, errors.New("status 503")
	}
	return f.byQuery[q], nil
}

type fakeSeen map[string]struct{}

func (s fakeSeen) FilterSeen(_ context.Context, _ model.Category, links []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, l := range links {
		if _, ok := s[l]; ok {
			out[l] = struct{}{}
		}
	}
	return out, nil
}

type fakeSeeds []string

func (s fakeSeeds) Keywords(context.Context) ([]string, error) { return s, nil }

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func cand(title, link string) model.Candidate {
	return model.Candidate{Title: title, Link: link}
}

func newCollector(s *fakeSearch, store LinkStore) *Collector {
	c := New(s, store, Options{DedupWindow: 72 * time.Hour, MaxAge: 24 * time.Hour, BatchSize: 60})
	c.now = func() time.Time { return now }
	return c
}

func TestCollectDedupsAcrossQueries(t *testing.T) {
	s := &fakeSearch{byQuery: map[string][]model.Candidate{
		"a": {cand("one", "https://n.example/1"), cand("two", "http://n.example/2/")},
		"b": {cand("one again", "https://n.example/1"), cand("two again", "https://n.example/2"), cand("no link", "")},
	}}
	res, err := newCollector(s, storage.NewMemory()).Collect(context.Background(), model.KPop, []string{"a", "b"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %+v", res.Candidates)
	}
	if res.Duplicates != 2 {
		t.Fatalf("duplicates = %d", res.Duplicates)
	}
	if res.Candidates[1].Link != "http://n.example/2/" || res.Candidates[0].Query != "a" {
		t.Fatalf("unexpected candidate %+v", res.Candidates)
	}
}

func TestCollectToleratesPartialFailure(t *testing.T) {
	s := &fakeSearch{
		byQuery: map[string][]model.Candidate{"ok": {cand("x", "https://n.example/x")}},
		fail:    map[string]bool{"bad": true},
	}
	res, err := newCollector(s, storage.NewMemory()).Collect(context.Background(), model.KDrama, []string{"bad", "ok"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || len(res.Candidates) != 1 {
		t.Fatalf("failed = %d, candidates = %d", res.Failed, len(res.Candidates))
	}
}

func TestCollectAllFailedIsError(t *testing.T) {
	s := &fakeSearch{fail: map[string]bool{"a": true, "b": true}}
	if _, err := newCollector(s, storage.NewMemory()).Collect(context.Background(), model.KDrama, []string{"a", "b"}, false); err == nil {
		t.Fatal("expected error when every query fails")
	}
}

func TestCollectEmptyIsNotError(t *testing.T) {
	s := &fakeSearch{}
	res, err := newCollector(s, storage.NewMemory()).Collect(context.Background(), model.KMovie, []string{"a"}, false)
	if err != nil || len(res.Candidates) != 0 {
		t.Fatalf("got %+v, %v", res, err)
	}
}

func TestCollectExcludesKnownAndSeenLinks(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	known := "https://n.example/known"
	mem.UpsertItems(ctx, []model.NewsItem{{Category: model.KPop, Title: "k", Link: &known, CreatedAt: now.Add(-2 * time.Hour)}})

	s := &fakeSearch{byQuery: map[string][]model.Candidate{"a": {
		cand("known", known),
		cand("seen", "https://n.example/seen"),
		cand("new", "https://n.example/new"),
	}}}
	c := newCollector(s, mem).WithSeen(fakeSeen{"https://n.example/seen": {}})
	res, err := c.Collect(ctx, model.KPop, []string{"a"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Title != "new" || res.Known != 2 {
		t.Fatalf("res = %+v", res)
	}
}

func TestCollectKeepsSourceLinkButMatchesNormalized(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	stored := "https://n.example/stored"
	mem.UpsertItems(ctx, []model.NewsItem{{Category: model.KPop, Title: "k", Link: &stored, CreatedAt: now.Add(-time.Hour)}})

	s := &fakeSearch{byQuery: map[string][]model.Candidate{"a": {
		cand("stored again", "http://n.example/stored/"),
		cand("plain http", " http://only-http.example/a "),
	}}}
	res, err := newCollector(s, mem).Collect(ctx, model.KPop, []string{"a"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Known != 1 || len(res.Candidates) != 1 {
		t.Fatalf("res = %+v", res)
	}
	if got := res.Candidates[0].Link; got != "http://only-http.example/a" {
		t.Fatalf("link = %q, want the source link", got)
	}
}

func TestCollectDropsOldPublications(t *testing.T) {
	old := now.Add(-30 * time.Hour)
	recent := now.Add(-time.Hour)
	s := &fakeSearch{byQuery: map[string][]model.Candidate{"a": {
		{Title: "old", Link: "https://n.example/old", PublishedAt: &old},
		{Title: "recent", Link: "https://n.example/recent", PublishedAt: &recent},
		{Title: "undated", Link: "https://n.example/undated"},
	}}}
	res, _ := newCollector(s, storage.NewMemory()).Collect(context.Background(), model.KPop, []string{"a"}, false)
	if len(res.Candidates) != 2 || res.TooOld != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestCollectCapsBatchAndUsesSeeds(t *testing.T) {
	s := &fakeSearch{byQuery: map[string][]model.Candidate{
		"seed": {cand("s1", "https://n.example/s1"), cand("s2", "https://n.example/s2"), cand("s3", "https://n.example/s3")},
	}}
	c := New(s, storage.NewMemory(), Options{DedupWindow: 72 * time.Hour, BatchSize: 2}).WithSeeds(fakeSeeds{"seed"})
	res, err := c.Collect(context.Background(), model.KCulture, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(res.Candidates))
	}
	if len(s.queries) != 1 || s.queries[0] != "seed" {
		t.Fatalf("queries = %v", s.queries)
	}
}
