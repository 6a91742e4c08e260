package feed

import (
	"context"
	"fmt"

	"contentradar/internal/domain"
)

// Dispatcher routes a source's configured type to the matching parser and
// enforces the per-feed entry cap. Webhook sources are fed externally and
// are never actively parsed.
type Dispatcher struct {
	fetcher  *Fetcher
	maxPosts int
}

// NewDispatcher creates a Dispatcher. maxPosts caps the number of items
// returned per check.
func NewDispatcher(fetcher *Fetcher, maxPosts int) *Dispatcher {
	if maxPosts <= 0 {
		maxPosts = 50
	}
	return &Dispatcher{fetcher: fetcher, maxPosts: maxPosts}
}

// Parse fetches and parses one source.
func (d *Dispatcher) Parse(ctx context.Context, source domain.Source) ([]domain.FeedItem, error) {
	var (
		items []domain.FeedItem
		err   error
	)

	switch source.Type {
	case domain.SourceTypeRSS:
		items, err = d.fetchAndParse(ctx, source.URL, ParseFeed)
	case domain.SourceTypeSitemap:
		items, err = d.fetchAndParse(ctx, source.URL, ParseSitemap)
	case domain.SourceTypeWebsite:
		var data []byte
		data, err = d.fetcher.Fetch(ctx, source.URL)
		if err == nil {
			items, err = ExtractWebsite(data, source.TitleSelector, source.LinkSelector, source.URL)
			if err == nil {
				items = FilterByKeywords(items, source.Keywords)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSourceType, source.Type)
	}

	if err != nil {
		return nil, err
	}

	if len(items) > d.maxPosts {
		items = items[:d.maxPosts]
	}
	return items, nil
}

func (d *Dispatcher) fetchAndParse(ctx context.Context, url string, parse func([]byte) ([]domain.FeedItem, error)) ([]domain.FeedItem, error) {
	data, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// ScrapeTitle exposes the fetcher's best-effort title scrape for items
// that arrive without one (sitemap entries).
func (d *Dispatcher) ScrapeTitle(ctx context.Context, url string) string {
	return d.fetcher.ScrapeTitle(ctx, url)
}
