package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownSourceType is returned by the parser dispatcher for source types
// it cannot actively parse.
var ErrUnknownSourceType = errors.New("unknown source type")

// ErrProviderNotConfigured signals that a team has no usable AI provider
// credentials. Not retryable; the fix is in team settings.
var ErrProviderNotConfigured = errors.New("ai provider is not configured for this team")

// TokenLimitExceededError is the non-retryable signal raised by the token
// limit guard when a team's monthly usage would reach its cap.
type TokenLimitExceededError struct {
	TeamID       int64
	UserID       *int64
	CurrentUsage int64
	Limit        int64
	Operation    string
}

func (e *TokenLimitExceededError) Error() string {
	return fmt.Sprintf("monthly token limit exceeded for team %d: usage %d, limit %d (operation %s)",
		e.TeamID, e.CurrentUsage, e.Limit, e.Operation)
}

// IsTokenLimitExceeded reports whether err is a token limit guard rejection.
func IsTokenLimitExceeded(err error) bool {
	var e *TokenLimitExceededError
	return errors.As(err, &e)
}
