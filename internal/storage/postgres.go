package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"hallyu-journalist/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Postgres stores the live collection, rankings, archive and keywords.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

// OpenPostgres connects and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, maxOpen int) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgres(db), nil
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const newsColumns = `id, category, keyword, title, summary, link, image_url, score, rank, likes, dislikes, created_at, published_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNews(r rowScanner) (model.NewsItem, error) {
	var (
		it        model.NewsItem
		category  string
		link, img sql.NullString
		rank      sql.NullInt64
		published sql.NullTime
	)
	if err := r.Scan(&it.ID, &category, &it.Keyword, &it.Title, &it.Summary, &link, &img,
		&it.Score, &rank, &it.Likes, &it.Dislikes, &it.CreatedAt, &published); err != nil {
		return it, err
	}
	it.Category = model.Category(category)
	if link.Valid {
		it.Link = &link.String
	}
	if img.Valid {
		it.ImageURL = &img.String
	}
	if rank.Valid {
		it.Rank = model.IntPtr(int(rank.Int64))
	}
	if published.Valid {
		t := published.Time
		it.PublishedAt = &t
	}
	return it, nil
}

func (p *Postgres) queryNews(ctx context.Context, query string, args ...any) ([]model.NewsItem, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.NewsItem
	for rows.Next() {
		it, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (p *Postgres) SelectItems(ctx context.Context, category model.Category) ([]model.NewsItem, error) {
	return p.queryNews(ctx, `SELECT `+newsColumns+` FROM live_news WHERE category = $1 ORDER BY created_at, id`, string(category))
}

// UpsertItems inserts items keyed on their dedup key. Existing rows keep
// their id, created_at and reaction counters.
func (p *Postgres) UpsertItems(ctx context.Context, items []model.NewsItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	n := 0
	for _, it := range items {
		created := it.CreatedAt
		if created.IsZero() {
			created = p.now()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO live_news (category, keyword, title, summary, link, image_url, score, dedup_key, created_at, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (dedup_key) DO UPDATE SET
				keyword = EXCLUDED.keyword,
				title = EXCLUDED.title,
				summary = EXCLUDED.summary,
				image_url = COALESCE(EXCLUDED.image_url, live_news.image_url),
				score = EXCLUDED.score,
				published_at = COALESCE(EXCLUDED.published_at, live_news.published_at)`,
			string(it.Category), it.Keyword, it.Title, it.Summary, nullString(it.Link), nullString(it.ImageURL),
			it.Score, it.DedupKey(), created, nullTime(it.PublishedAt))
		if err != nil {
			return 0, fmt.Errorf("upsert live_news %q: %w", it.DedupKey(), err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Postgres) DeleteItems(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := p.db.ExecContext(ctx, `DELETE FROM live_news WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

// UpdateRanks writes each changed rank; a failure leaves earlier updates applied.
func (p *Postgres) UpdateRanks(ctx context.Context, updates []model.RankUpdate) error {
	var errs []error
	for _, u := range updates {
		if _, err := p.db.ExecContext(ctx, `UPDATE live_news SET rank = $1 WHERE id = $2`, u.Rank, u.ID); err != nil {
			errs = append(errs, fmt.Errorf("rank %d -> %d: %w", u.ID, u.Rank, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Postgres) SelectLinks(ctx context.Context, category model.Category, since time.Time) (map[string]struct{}, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT link FROM live_news WHERE category = $1 AND link IS NOT NULL AND created_at >= $2
		UNION
		SELECT link FROM search_archive WHERE category = $1 AND link IS NOT NULL AND archived_at >= $2`,
		string(category), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]struct{}{}
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, err
		}
		out[link] = struct{}{}
	}
	return out, rows.Err()
}

func (p *Postgres) ReplaceRankings(ctx context.Context, category model.Category, entries []model.RankingEntry) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM live_rankings WHERE category = $1`, string(category)); err != nil {
		return err
	}
	for _, e := range entries {
		updated := e.UpdatedAt
		if updated.IsZero() {
			updated = p.now()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO live_rankings (category, rank, title, meta_info, score, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			string(category), e.Rank, e.Title, e.MetaInfo, e.Score, updated); err != nil {
			return fmt.Errorf("insert ranking %d: %w", e.Rank, err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) UpsertArchive(ctx context.Context, records []model.ArchiveRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	for _, r := range records {
		archived := r.ArchivedAt
		if archived.IsZero() {
			archived = p.now()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO search_archive (dedup_key, category, keyword, title, summary, link, image_url, score, rank, created_at, published_at, archived_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (dedup_key) DO UPDATE SET
				title = EXCLUDED.title,
				summary = EXCLUDED.summary,
				image_url = COALESCE(EXCLUDED.image_url, search_archive.image_url),
				score = EXCLUDED.score,
				rank = EXCLUDED.rank,
				archived_at = EXCLUDED.archived_at`,
			r.DedupKey(), string(r.Category), r.Keyword, r.Title, r.Summary, nullString(r.Link), nullString(r.ImageURL),
			r.Score, nullInt(r.Rank), r.CreatedAt, nullTime(r.PublishedAt), archived)
		if err != nil {
			return 0, fmt.Errorf("upsert search_archive %q: %w", r.DedupKey(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (p *Postgres) ReplaceTrendingKeywords(ctx context.Context, entries []model.TrendingKeyword) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM trending_keywords`); err != nil {
		return err
	}
	for _, e := range entries {
		updated := e.UpdatedAt
		if updated.IsZero() {
			updated = p.now()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trending_keywords (keyword, count, rank, updated_at) VALUES ($1, $2, $3, $4)`,
			e.Keyword, e.Count, e.Rank, updated); err != nil {
			return fmt.Errorf("insert keyword %q: %w", e.Keyword, err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) RecentTitles(ctx context.Context, limit int) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT title FROM live_news ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) KeywordUsedSince(ctx context.Context, category model.Category, keyword string, since time.Time) (bool, error) {
	var used bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM live_news WHERE category = $1 AND lower(keyword) = lower($2) AND created_at >= $3)`,
		string(category), strings.TrimSpace(keyword), since).Scan(&used)
	return used, err
}

func (p *Postgres) ListNews(ctx context.Context, category model.Category, limit int) ([]model.NewsItem, error) {
	return p.queryNews(ctx, `SELECT `+newsColumns+` FROM live_news WHERE category = $1
		ORDER BY rank ASC NULLS LAST, score DESC, created_at DESC LIMIT $2`, string(category), limit)
}

func (p *Postgres) GetNews(ctx context.Context, id int64) (*model.NewsItem, error) {
	it, err := scanNews(p.db.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM live_news WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (p *Postgres) ListRankings(ctx context.Context, category model.Category) ([]model.RankingEntry, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT category, rank, title, meta_info, score, updated_at FROM live_rankings WHERE category = $1 ORDER BY rank`, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RankingEntry
	for rows.Next() {
		var (
			e   model.RankingEntry
			cat string
		)
		if err := rows.Scan(&cat, &e.Rank, &e.Title, &e.MetaInfo, &e.Score, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Category = model.Category(cat)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) ListKeywords(ctx context.Context) ([]model.TrendingKeyword, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT keyword, count, rank, updated_at FROM trending_keywords ORDER BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TrendingKeyword
	for rows.Next() {
		var k model.TrendingKeyword
		if err := rows.Scan(&k.Keyword, &k.Count, &k.Rank, &k.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (p *Postgres) ListArchive(ctx context.Context, category model.Category, limit, offset int) ([]model.ArchiveRecord, int, error) {
	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_archive WHERE ($1 = '' OR category = $1)`, string(category)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT category, keyword, title, summary, link, image_url, score, rank, created_at, published_at, archived_at
		FROM search_archive WHERE ($1 = '' OR category = $1)
		ORDER BY archived_at DESC, id DESC LIMIT $2 OFFSET $3`, string(category), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.ArchiveRecord
	for rows.Next() {
		var (
			r         model.ArchiveRecord
			cat       string
			link, img sql.NullString
			rank      sql.NullInt64
			published sql.NullTime
		)
		if err := rows.Scan(&cat, &r.Keyword, &r.Title, &r.Summary, &link, &img, &r.Score, &rank,
			&r.CreatedAt, &published, &r.ArchivedAt); err != nil {
			return nil, 0, err
		}
		r.Category = model.Category(cat)
		if link.Valid {
			r.Link = &link.String
		}
		if img.Valid {
			r.ImageURL = &img.String
		}
		if rank.Valid {
			r.Rank = model.IntPtr(int(rank.Int64))
		}
		if published.Valid {
			t := published.Time
			r.PublishedAt = &t
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (p *Postgres) React(ctx context.Context, id int64, like bool) (*model.NewsItem, error) {
	col := "dislikes"
	if like {
		col = "likes"
	}
	it, err := scanNews(p.db.QueryRowContext(ctx,
		`UPDATE live_news SET `+col+` = `+col+` + 1 WHERE id = $1 RETURNING `+newsColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
