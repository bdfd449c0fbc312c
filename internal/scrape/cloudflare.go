package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Cloudflare renders pages through the Cloudflare Browser Rendering REST API
// and returns their text. It is used for pages whose markup the HTML
// extractor cannot read, such as script-rendered articles.
// See: https://developers.cloudflare.com/browser-rendering/rest-api/
type Cloudflare struct {
	baseURL  string
	token    string
	maxChars int
	http     *http.Client
}

type markdownRequest struct {
	URL                  string   `json:"url"`
	RejectRequestPattern []string `json:"rejectRequestPattern,omitempty"`
}

type markdownResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Errors  any    `json:"errors"`
}

// NewCloudflare creates a client for an account.
// Endpoint: https://api.cloudflare.com/client/v4/accounts/<ACCOUNT_ID>/browser-rendering/markdown
func NewCloudflare(accountID, token string, maxChars int, timeout time.Duration) *Cloudflare {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	baseURL := fmt.Sprintf("https://api.cloudflare.com/client/v4/accounts/%s/browser-rendering/markdown", strings.TrimSpace(accountID))
	return &Cloudflare{baseURL: baseURL, token: token, maxChars: maxChars, http: &http.Client{Timeout: timeout}}
}

func (c *Cloudflare) Extract(ctx context.Context, link string) Article {
	md, err := c.markdown(ctx, link)
	if err != nil {
		slog.Debug("scrape: cloudflare render failed", "link", link, "error", err)
		return Article{}
	}
	return Article{Text: Truncate(MarkdownText(md), c.maxChars)}
}

func (c *Cloudflare) markdown(ctx context.Context, u string) (string, error) {
	if _, err := url.ParseRequestURI(u); err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	body, _ := json.Marshal(markdownRequest{
		URL:                  u,
		RejectRequestPattern: []string{"/^.*\\.(css)/"},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("cloudflare render failed: status=%d body=%s", resp.StatusCode, string(b))
	}
	var envelope markdownResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if !envelope.Success {
		return "", fmt.Errorf("cloudflare render failed: %v", envelope.Errors)
	}
	return envelope.Result, nil
}

var (
	mdImageRe = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkRe  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
)

// MarkdownText flattens rendered markdown into plain prose, dropping
// headings, images and link targets.
func MarkdownText(md string) string {
	md = mdImageRe.ReplaceAllString(md, "")
	md = mdLinkRe.ReplaceAllString(md, "$1")
	var parts []string
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimLeft(line, "*->| ")
		if line != "" {
			parts = append(parts, line)
		}
	}
	return collapse(strings.Join(parts, " "))
}
