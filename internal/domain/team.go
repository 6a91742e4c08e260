package domain

import "strings"

// AIProviderConfig holds a team's LLM provider selection and credentials.
type AIProviderConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// Configured reports whether the team can make AI calls at all.
func (c AIProviderConfig) Configured() bool {
	return c.APIKey != "" && c.Model != ""
}

// Team is the tenant boundary and quota holder. Keyword lists are stored
// newline-delimited and exposed as slices.
type Team struct {
	ID                int64
	Name              string
	MonthlyTokenLimit int64 // 0 means unlimited
	PositiveKeywords  string
	NegativeKeywords  string
	AIProvider        AIProviderConfig
	OwnerUserID       int64
}

// PositiveKeywordList splits the stored newline-delimited positive keywords,
// dropping blank lines.
func (t Team) PositiveKeywordList() []string {
	return splitKeywords(t.PositiveKeywords)
}

// NegativeKeywordList splits the stored newline-delimited negative keywords,
// dropping blank lines.
func (t Team) NegativeKeywordList() []string {
	return splitKeywords(t.NegativeKeywords)
}

func splitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
