package storage

import (
	"context"
	"time"

	"hallyu-journalist/internal/model"
)

// Store is the persistence contract of the curation pipeline. Each component
// depends only on the subset it needs; Postgres and Memory implement all of it.
type Store interface {
	SelectItems(ctx context.Context, category model.Category) ([]model.NewsItem, error)
	UpsertItems(ctx context.Context, items []model.NewsItem) (int, error)
	DeleteItems(ctx context.Context, ids []int64) error
	UpdateRanks(ctx context.Context, updates []model.RankUpdate) error
	SelectLinks(ctx context.Context, category model.Category, since time.Time) (map[string]struct{}, error)
	ReplaceRankings(ctx context.Context, category model.Category, entries []model.RankingEntry) error
	UpsertArchive(ctx context.Context, records []model.ArchiveRecord) (int, error)
	ReplaceTrendingKeywords(ctx context.Context, entries []model.TrendingKeyword) error
	RecentTitles(ctx context.Context, limit int) ([]string, error)
	KeywordUsedSince(ctx context.Context, category model.Category, keyword string, since time.Time) (bool, error)
}

// ReadStore backs the read API.
type ReadStore interface {
	Ping(ctx context.Context) error
	ListNews(ctx context.Context, category model.Category, limit int) ([]model.NewsItem, error)
	GetNews(ctx context.Context, id int64) (*model.NewsItem, error)
	ListRankings(ctx context.Context, category model.Category) ([]model.RankingEntry, error)
	ListKeywords(ctx context.Context) ([]model.TrendingKeyword, error)
	ListArchive(ctx context.Context, category model.Category, limit, offset int) ([]model.ArchiveRecord, int, error)
	React(ctx context.Context, id int64, like bool) (*model.NewsItem, error)
}

// ReactionLike and ReactionDislike name the two reactions.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)
