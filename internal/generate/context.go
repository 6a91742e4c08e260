package generate

import (
	"fmt"
	"strings"

	"contentradar/internal/domain"
)

// ContextLimits caps how much background material goes into one prompt.
type ContextLimits struct {
	MaxSourceWords  int
	MaxContextWords int
}

// BuildContext concatenates background material into the prompt context.
// Sources are added oldest-first and each is capped at MaxSourceWords;
// once the running total reaches MaxContextWords no further source is
// added. The briefing comes last and competes for the same budget.
func BuildContext(piece domain.ContentPiece, sources []domain.BackgroundSource, postsByID map[int64]domain.Post, limits ContextLimits) string {
	var (
		parts      []string
		totalWords int
	)

	add := func(text string) bool {
		if totalWords >= limits.MaxContextWords {
			return false
		}
		text = truncateWords(text, limits.MaxSourceWords)
		words := countWords(text)
		if words == 0 {
			return true
		}
		parts = append(parts, text)
		totalWords += words
		return true
	}

	for _, src := range sources {
		var block string
		switch v := src.(type) {
		case domain.PostRef:
			post, ok := postsByID[v.PostID]
			if !ok {
				continue
			}
			block = formatPost(post)
		case domain.ManualText:
			block = formatManual(v)
		default:
			continue
		}
		if !add(block) {
			break
		}
	}

	if piece.Briefing != "" && totalWords < limits.MaxContextWords {
		add("Briefing:\n" + piece.Briefing)
	}

	return strings.Join(parts, "\n\n")
}

func formatPost(post domain.Post) string {
	title := post.InternalTitle
	if title == "" {
		title = post.ExternalTitle
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Article: %s\nURL: %s", title, post.URI)
	if post.Summary != nil && *post.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(*post.Summary)
	}
	return sb.String()
}

func formatManual(src domain.ManualText) string {
	var sb strings.Builder
	if src.Title != "" {
		fmt.Fprintf(&sb, "Source: %s\n", src.Title)
	}
	if src.URL != "" {
		fmt.Fprintf(&sb, "URL: %s\n", src.URL)
	}
	sb.WriteString(src.Text)
	return sb.String()
}

func truncateWords(text string, max int) string {
	if max <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

// RenderTemplate substitutes the {{context}}, {{channel}} and
// {{language}} placeholders into a prompt template.
func RenderTemplate(template, contextText, channel, language string) string {
	return strings.NewReplacer(
		"{{context}}", contextText,
		"{{channel}}", channel,
		"{{language}}", language,
	).Replace(template)
}
