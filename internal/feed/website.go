package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"contentradar/internal/domain"
)

// ExtractWebsite scrapes candidate posts from an HTML page using CSS
// selectors. Matched titles and links are paired positionally up to the
// shorter list's length; relative hrefs are resolved against baseURL.
func ExtractWebsite(data []byte, titleSelector, linkSelector, baseURL string) ([]domain.FeedItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var titles []string
	doc.Find(titleSelector).Each(func(_ int, sel *goquery.Selection) {
		titles = append(titles, strings.TrimSpace(sel.Text()))
	})

	var links []string
	doc.Find(linkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			href = ""
		}
		links = append(links, strings.TrimSpace(href))
	})

	n := len(titles)
	if len(links) < n {
		n = len(links)
	}

	items := make([]domain.FeedItem, 0, n)
	for i := 0; i < n; i++ {
		if links[i] == "" {
			continue
		}
		resolved, err := ResolveURL(baseURL, links[i])
		if err != nil {
			continue
		}
		items = append(items, domain.FeedItem{
			URI:   resolved,
			Title: titles[i],
		})
	}
	return items, nil
}

// ResolveURL resolves an href against the page's base URL. Handles
// protocol-relative (//host/path), absolute-path (/path) and bare
// relative hrefs; absolute URLs pass through unchanged.
func ResolveURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// FilterByKeywords keeps items whose title contains at least one of the
// comma-separated keywords, case-insensitively. An empty keyword string
// keeps everything. This is the source-level scraper filter, independent
// of team keyword rules.
func FilterByKeywords(items []domain.FeedItem, keywords string) []domain.FeedItem {
	var kws []string
	for _, kw := range strings.Split(keywords, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	if len(kws) == 0 {
		return items
	}

	var out []domain.FeedItem
	for _, item := range items {
		title := strings.ToLower(item.Title)
		for _, kw := range kws {
			if strings.Contains(title, kw) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
