package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hallyu-journalist/internal/failure"
	"hallyu-journalist/internal/model"
)

// Naver is a client for the Naver news search API.
// Docs: https://developers.naver.com/docs/serviceapi/search/news/news.md
type Naver struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *http.Client
}

func NewNaver(baseURL, clientID, clientSecret string, timeout time.Duration) *Naver {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://openapi.naver.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Naver{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: timeout},
	}
}

func (n *Naver) Name() string { return "naver" }

type naverResponse struct {
	Total int         `json:"total"`
	Items []naverItem `json:"items"`
}

type naverItem struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originallink"`
	Link         string `json:"link"`
	Description  string `json:"description"`
	PubDate      string `json:"pubDate"`
}

// Search queries the news endpoint sorted by date. display is capped at 100.
func (n *Naver) Search(ctx context.Context, query string, max int) ([]model.Candidate, error) {
	if n.clientID == "" || n.clientSecret == "" {
		return nil, failure.Config("naver: search", "client id/secret not configured")
	}
	if max <= 0 || max > 100 {
		max = 100
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("display", strconv.Itoa(max))
	q.Set("sort", "date")
	endpoint := n.baseURL + "/v1/search/news.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Naver-Client-Id", n.clientID)
	req.Header.Set("X-Naver-Client-Secret", n.clientSecret)
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, failure.Transient("naver: search", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failure.Transient("naver: search", fmt.Errorf("status %d", resp.StatusCode))
	}
	var body naverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, failure.Malformed("naver: search", err)
	}
	out := make([]model.Candidate, 0, len(body.Items))
	for _, it := range body.Items {
		out = append(out, convertItem(it, query))
	}
	return out, nil
}

func convertItem(it naverItem, query string) model.Candidate {
	link := strings.TrimSpace(it.OriginalLink)
	if link == "" {
		link = strings.TrimSpace(it.Link)
	}
	c := model.Candidate{
		Title:   CleanText(it.Title),
		Link:    link,
		Snippet: CleanText(it.Description),
		Query:   query,
		Source:  "naver",
	}
	if t, err := time.Parse(time.RFC1123Z, strings.TrimSpace(it.PubDate)); err == nil {
		c.PublishedAt = &t
	}
	return c
}
