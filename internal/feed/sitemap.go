package feed

import (
	"encoding/xml"
	"fmt"
	"strings"

	"contentradar/internal/domain"
)

type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// ParseSitemap extracts every <loc> under <url> from an XML sitemap.
// Element matching is by local name, so sitemaps with or without the
// default sitemap namespace both work. Sitemap entries carry no title.
func ParseSitemap(data []byte) ([]domain.FeedItem, error) {
	var urlset sitemapURLSet
	if err := xml.Unmarshal(data, &urlset); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(urlset.URLs))
	for _, u := range urlset.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" {
			continue
		}
		items = append(items, domain.FeedItem{URI: loc})
	}
	return items, nil
}
