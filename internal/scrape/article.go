// Package scrape extracts article body text and a representative image from
// news pages. Extraction is best-effort: failures yield an empty Article.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hallyu-journalist/internal/model"
)

// Article is the result of a best-effort extraction.
type Article struct {
	Text     string
	ImageURL *string
}

func (a Article) Empty() bool { return a.Text == "" && a.ImageURL == nil }

// Extractor never returns an error; failures produce an empty Article.
type Extractor interface {
	Extract(ctx context.Context, link string) Article
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// contentSelectors are the main-content regions of the major Korean portals
// and newspapers, tried as one selector group.
var contentSelectors = strings.Join([]string{
	"#dic_area",
	"#articleBodyContents",
	".article_view",
	"#articeBody",
	".news_view",
	"#newsct_article",
	".article-body",
}, ", ")

var badImageRe = regexp.MustCompile(`(?i)logo|icon|button|share|banner|thumb|profile|default|ranking|news_stand|ssl\.pstatic\.net`)

const (
	fallbackBodyChars = 1000
	minImageWidth     = 200
)

// HTML fetches the page and applies the content-area and image heuristics.
type HTML struct {
	MaxChars int
	Prober   *ImageProber // optional dimension check
	client   *http.Client
}

func NewHTML(maxChars int, timeout time.Duration) *HTML {
	if maxChars <= 0 {
		maxChars = 1500
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTML{MaxChars: maxChars, client: &http.Client{Timeout: timeout}}
}

func (h *HTML) Extract(ctx context.Context, link string) Article {
	doc, err := h.fetch(ctx, link)
	if err != nil {
		slog.Debug("scrape: fetch failed", "link", link, "error", err)
		return Article{}
	}
	art := ExtractDocument(doc, h.MaxChars)
	if art.ImageURL != nil && h.Prober != nil && !h.Prober.Acceptable(ctx, *art.ImageURL) {
		art.ImageURL = nil
	}
	return art
}

func (h *HTML) fetch(ctx context.Context, link string) (*goquery.Document, error) {
	if _, err := url.ParseRequestURI(link); err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// ExtractDocument applies the heuristics to an already parsed page.
func ExtractDocument(doc *goquery.Document, maxChars int) Article {
	var art Article
	area := doc.Find(contentSelectors).First()
	if area.Length() > 0 {
		area.Find("script, style, iframe, button, a, .ad, div.ad").Remove()
		art.Text = Truncate(collapse(area.Text()), maxChars)
	} else {
		body := doc.Find("body").First().Clone()
		body.Find("script, style, noscript").Remove()
		art.Text = Truncate(collapse(body.Text()), fallbackBodyChars)
	}

	var img string
	if area.Length() > 0 {
		area.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src := s.AttrOr("src", "")
			if src == "" {
				src = s.AttrOr("data-src", "")
			}
			src = strings.TrimSpace(src)
			if !strings.HasPrefix(src, "https://") {
				return true
			}
			if w, err := strconv.Atoi(strings.TrimSpace(s.AttrOr("width", ""))); err == nil && w < minImageWidth {
				return true
			}
			img = src
			return false
		})
	}
	if img == "" {
		og := strings.TrimSpace(doc.Find(`meta[property="og:image"]`).AttrOr("content", ""))
		if strings.HasPrefix(og, "https://") {
			img = og
		}
	}
	if img != "" && !badImageRe.MatchString(img) {
		art.ImageURL = model.StringPtr(img)
	}
	return art
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fallback asks each extractor in turn and fills text and image from the
// first that provides them.
type Fallback struct {
	Extractors []Extractor
}

func (f *Fallback) Extract(ctx context.Context, link string) Article {
	var out Article
	for _, e := range f.Extractors {
		a := e.Extract(ctx, link)
		if out.Text == "" {
			out.Text = a.Text
		}
		if out.ImageURL == nil {
			out.ImageURL = a.ImageURL
		}
		if out.Text != "" && out.ImageURL != nil {
			break
		}
	}
	return out
}
