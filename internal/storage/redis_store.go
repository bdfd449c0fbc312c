package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hallyu-journalist/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisStore holds short-lived coordination state: links already offered to
// the curator, briefing keyword cooldowns and the rotation cursor.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func seenKey(category model.Category, link string) string {
	return fmt.Sprintf("hallyu:seen:%s:%s", category, link)
}

func keywordKey(category model.Category, keyword string) string {
	return fmt.Sprintf("hallyu:keyword:%s:%s", category, strings.ToLower(strings.TrimSpace(keyword)))
}

const rotationKey = "hallyu:rotation"

// MarkSeen records links for the given duration.
func (s *RedisStore) MarkSeen(ctx context.Context, category model.Category, links []string, ttl time.Duration) error {
	if ttl <= 0 || len(links) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	for _, l := range links {
		if l == "" {
			continue
		}
		pipe.Set(ctx, seenKey(category, l), "1", ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// FilterSeen returns the subset of links that were marked seen.
func (s *RedisStore) FilterSeen(ctx context.Context, category model.Category, links []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	if len(links) == 0 {
		return out, nil
	}
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(links))
	for i, l := range links {
		cmds[i] = pipe.Exists(ctx, seenKey(category, l))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	for i, c := range cmds {
		if c.Val() > 0 {
			out[links[i]] = struct{}{}
		}
	}
	return out, nil
}

// MarkKeyword starts the cooldown of a briefing keyword.
func (s *RedisStore) MarkKeyword(ctx context.Context, category model.Category, keyword string, cooldown time.Duration) error {
	if cooldown <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, keywordKey(category, keyword), "1", cooldown).Err()
}

// KeywordCooling reports whether the keyword is still in its cooldown.
func (s *RedisStore) KeywordCooling(ctx context.Context, category model.Category, keyword string) (bool, error) {
	_, err := s.rdb.Get(ctx, keywordKey(category, keyword)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NextCategory advances the shared rotation cursor and returns the category
// it now points at.
func (s *RedisStore) NextCategory(ctx context.Context, categories []model.Category) (model.Category, error) {
	if len(categories) == 0 {
		return "", fmt.Errorf("no categories to rotate")
	}
	n, err := s.rdb.Incr(ctx, rotationKey).Result()
	if err != nil {
		return "", err
	}
	return categories[(n-1)%int64(len(categories))], nil
}
