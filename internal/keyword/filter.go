// Package keyword implements the team-level title matching rules.
package keyword

import "strings"

// NeedsFiltering reports whether any keyword rules are configured at all.
// Callers use it as a fast path to skip filtering (and title scraping)
// entirely.
func NeedsFiltering(positive, negative []string) bool {
	return len(clean(positive)) > 0 || len(clean(negative)) > 0
}

// Match checks a title against positive/negative keyword lists.
// Negative keywords win: any match rejects the title outright. Otherwise,
// when positive keywords are configured the title must match at least one.
// With no positive keywords the title is included.
// Matching is case-insensitive substring comparison.
func Match(title string, positive, negative []string) bool {
	lowered := strings.ToLower(title)

	for _, kw := range clean(negative) {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return false
		}
	}

	pos := clean(positive)
	if len(pos) == 0 {
		return true
	}
	for _, kw := range pos {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func clean(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
