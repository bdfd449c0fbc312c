package search

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// TrendSeeds reads the Google Trends daily RSS feed and returns its titles,
// which the collector can use as extra query terms.
type TrendSeeds struct {
	URL     string
	Limit   int
	Timeout time.Duration
	parser  *gofeed.Parser
}

func NewTrendSeeds(feedURL string, limit int, timeout time.Duration) *TrendSeeds {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TrendSeeds{URL: feedURL, Limit: limit, Timeout: timeout, parser: gofeed.NewParser()}
}

// Keywords never fails hard; the feed is an optional hint.
func (t *TrendSeeds) Keywords(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()
	feed, err := t.parser.ParseURLWithContext(t.URL, ctx)
	if err != nil {
		return nil, classifyFeedErr("trends: rss", err)
	}
	seen := map[string]struct{}{}
	var out []string
	for _, it := range feed.Items {
		kw := strings.TrimSpace(it.Title)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
		if t.Limit > 0 && len(out) >= t.Limit {
			break
		}
	}
	return out, nil
}
