// Package feed fetches and parses external content sources.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"contentradar/internal/metrics"
)

const maxBodyBytes = 10 * 1024 * 1024

// Fetcher performs HTTP GETs with a fixed timeout and a browser-like
// User-Agent. Feed endpoints routinely reject default Go user agents.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// FetcherConfig holds fetcher configuration.
type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  cfg.UserAgent,
	}
}

// Fetch downloads url and returns the response body.
// Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	metrics.ObserveFetch(start, err)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// ScrapeTitle fetches a page and extracts its <title> text. Best effort:
// any failure yields an empty string so the caller can run the result
// through the normal keyword rules.
func (f *Fetcher) ScrapeTitle(ctx context.Context, url string) string {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
