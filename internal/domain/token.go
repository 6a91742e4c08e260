package domain

import "time"

// TokenUsageLog is one append-only ledger entry for a metered AI call.
// Rows are never updated; the current-calendar-month sum per team is the
// authoritative usage figure.
type TokenUsageLog struct {
	ID           int64
	TeamID       int64
	UserID       *int64
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Model        string
	Operation    string
	CreatedAt    time.Time
}

// TokenUsage reports token counts for a single AI call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
