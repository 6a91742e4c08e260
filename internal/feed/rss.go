package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"

	"contentradar/internal/domain"
)

// ParseFeed parses RSS 2.0 or Atom content into candidate items. Format
// detection is handled by gofeed; malformed XML is an error. Entries
// without a link are skipped.
func ParseFeed(data []byte) ([]domain.FeedItem, error) {
	parser := gofeed.NewParser()
	parsed, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		items = append(items, domain.FeedItem{
			URI:   item.Link,
			Title: item.Title,
		})
	}
	return items, nil
}
