package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"hallyu-journalist/internal/failure"
	"hallyu-journalist/internal/model"
)

// GoogleNews searches the Google News RSS endpoint.
type GoogleNews struct {
	baseURL string
	lang    string
	region  string
	timeout time.Duration
	parser  *gofeed.Parser
}

func NewGoogleNews(baseURL, lang, region string, timeout time.Duration) *GoogleNews {
	if baseURL == "" {
		baseURL = "https://news.google.com/rss/search"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleNews{baseURL: baseURL, lang: lang, region: region, timeout: timeout, parser: gofeed.NewParser()}
}

func (g *GoogleNews) Name() string { return "google_news" }

func (g *GoogleNews) Search(ctx context.Context, query string, max int) ([]model.Candidate, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("hl", g.lang)
	q.Set("gl", g.region)
	q.Set("ceid", fmt.Sprintf("%s:%s", g.region, g.lang))
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	feed, err := g.parser.ParseURLWithContext(g.baseURL+"?"+q.Encode(), ctx)
	if err != nil {
		return nil, classifyFeedErr("google_news: search", err)
	}
	out := make([]model.Candidate, 0, len(feed.Items))
	for _, it := range feed.Items {
		if max > 0 && len(out) >= max {
			break
		}
		c := model.Candidate{
			Title:   CleanText(it.Title),
			Link:    strings.TrimSpace(it.Link),
			Snippet: CleanText(it.Description),
			Query:   query,
			Source:  "google_news",
		}
		if it.PublishedParsed != nil {
			t := *it.PublishedParsed
			c.PublishedAt = &t
		}
		out = append(out, c)
	}
	return out, nil
}

func classifyFeedErr(op string, err error) error {
	var he gofeed.HTTPError
	if errors.As(err, &he) && he.StatusCode >= 400 && he.StatusCode < 500 && he.StatusCode != 429 {
		return failure.Malformed(op, err)
	}
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return failure.Malformed(op, err)
	}
	return failure.Transient(op, err)
}
