package scrape

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chai2010/webp"
)

// ImageProber downloads the head of an image to check its real dimensions.
type ImageProber struct {
	MinWidth int
	client   *http.Client
}

func NewImageProber(minWidth int, timeout time.Duration) *ImageProber {
	if minWidth <= 0 {
		minWidth = minImageWidth
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ImageProber{MinWidth: minWidth, client: &http.Client{Timeout: timeout}}
}

// Acceptable reports whether the image is at least MinWidth wide. Images
// whose size cannot be determined are accepted.
func (p *ImageProber) Acceptable(ctx context.Context, src string) bool {
	cfg, err := p.probe(ctx, src)
	if err != nil {
		return true
	}
	return cfg.Width >= p.MinWidth
}

func (p *ImageProber) probe(ctx context.Context, src string) (image.Config, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return image.Config{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := p.client.Do(req)
	if err != nil {
		return image.Config{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return image.Config{}, fmt.Errorf("image status %d", resp.StatusCode)
	}
	// headers of all supported formats sit well inside the first 64KiB
	body := io.LimitReader(resp.Body, 64<<10)
	if strings.Contains(resp.Header.Get("Content-Type"), "webp") || strings.HasSuffix(strings.ToLower(src), ".webp") {
		return webp.DecodeConfig(body)
	}
	cfg, _, err := image.DecodeConfig(body)
	return cfg, err
}
