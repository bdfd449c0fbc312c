package model

import (
	"strings"
	"time"
)

// Category scopes collection, curation and eviction.
type Category string

const (
	KPop       Category = "k-pop"
	KDrama     Category = "k-drama"
	KMovie     Category = "k-movie"
	KEntertain Category = "k-entertain"
	KCulture   Category = "k-culture"
)

// DefaultCategories is the rotation order used when none is configured.
var DefaultCategories = []Category{KPop, KDrama, KMovie, KEntertain, KCulture}

// NewsItem is one curated article or briefing in the live collection.
type NewsItem struct {
	ID          int64      `json:"id"`
	Category    Category   `json:"category"`
	Keyword     string     `json:"keyword,omitempty"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Link        *string    `json:"link,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Score       float64    `json:"score"`
	Rank        *int       `json:"rank,omitempty"`
	Likes       int        `json:"likes"`
	Dislikes    int        `json:"dislikes"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// DedupKey is the natural key of the item: its link when present, otherwise
// category and keyword (briefing items carry no link).
func (n NewsItem) DedupKey() string {
	if l := StringValue(n.Link); l != "" {
		return l
	}
	return string(n.Category) + "|" + strings.ToLower(strings.TrimSpace(n.Keyword))
}

// RankUpdate assigns a new dense rank to a persisted item.
type RankUpdate struct {
	ID   int64
	Rank int
}

// RankingEntry is the sidebar projection of the top items of a category.
type RankingEntry struct {
	Category  Category  `json:"category"`
	Rank      int       `json:"rank"`
	Title     string    `json:"title"`
	MetaInfo  string    `json:"meta_info"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArchiveRecord is a permanent copy of a high-value NewsItem.
type ArchiveRecord struct {
	Category    Category   `json:"category"`
	Keyword     string     `json:"keyword,omitempty"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Link        *string    `json:"link,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Score       float64    `json:"score"`
	Rank        *int       `json:"rank,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ArchivedAt  time.Time  `json:"archived_at"`
}

// DedupKey is the link, or category|keyword|title when the link is null.
func (a ArchiveRecord) DedupKey() string {
	if l := StringValue(a.Link); l != "" {
		return l
	}
	return strings.Join([]string{string(a.Category), strings.TrimSpace(a.Keyword), strings.TrimSpace(a.Title)}, "|")
}

// ArchiveFrom copies a live item into an archive record.
func ArchiveFrom(n NewsItem, at time.Time) ArchiveRecord {
	return ArchiveRecord{
		Category:    n.Category,
		Keyword:     n.Keyword,
		Title:       n.Title,
		Summary:     n.Summary,
		Link:        n.Link,
		ImageURL:    n.ImageURL,
		Score:       n.Score,
		Rank:        n.Rank,
		CreatedAt:   n.CreatedAt,
		PublishedAt: n.PublishedAt,
		ArchivedAt:  at,
	}
}

// TrendingKeyword is one row of the point-in-time keyword snapshot.
type TrendingKeyword struct {
	Keyword   string    `json:"keyword"`
	Count     int       `json:"count"`
	Rank      int       `json:"rank"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Candidate is a raw search result, optionally enriched with article text.
type Candidate struct {
	Title       string
	Link        string
	Snippet     string
	PublishedAt *time.Time
	Query       string
	Source      string
	Body        string
	ImageURL    *string
}

// Context returns the best available text for prompting.
func (c Candidate) Context() string {
	if strings.TrimSpace(c.Body) != "" {
		return c.Body
	}
	return c.Snippet
}

func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func IntPtr(i int) *int { return &i }
