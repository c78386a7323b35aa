package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lukasmauer/wortschatz/internal/domain"
)

const catalogPath = "levels.json"

// HTTPProvider fetches catalog and lesson JSON from a content server. One
// request per resource, no retries; the caller decides what a failure
// means.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider rooted at baseURL.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Catalog fetches the level catalog.
func (p *HTTPProvider) Catalog(ctx context.Context) ([]domain.Level, error) {
	data, err := p.fetch(ctx, catalogPath)
	if err != nil {
		return nil, err
	}
	return parseCatalog(data)
}

// LessonContent fetches one lesson's content file.
func (p *HTTPProvider) LessonContent(ctx context.Context, ref string) (*domain.LessonContent, error) {
	data, err := p.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return parseLessonContent(data)
}

func (p *HTTPProvider) fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.JoinPath(p.baseURL, ref)
	if err != nil {
		return nil, fmt.Errorf("build content url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build content request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", ref, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return body, nil
}
