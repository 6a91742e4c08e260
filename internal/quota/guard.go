// Package quota enforces per-team monthly token budgets for AI calls.
package quota

import (
	"context"
	"fmt"
	"log/slog"

	"contentradar/internal/domain"
)

//go:generate mockgen -source=guard.go -destination=mocks/mocks.go -package=mocks

// TeamStore loads team quota configuration.
type TeamStore interface {
	Get(ctx context.Context, id int64) (domain.Team, error)
}

// UsageStore reads and appends the token usage ledger.
type UsageStore interface {
	Append(ctx context.Context, log domain.TokenUsageLog) error
	MonthlyTotalLocked(ctx context.Context, teamID int64) (int64, error)
}

// TransactionManager wraps a function in one database transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Guard checks a team's current-month token usage against its configured
// monthly cap before any metered AI operation. This is best-effort quota
// enforcement, not a reservation system: the row lock serializes
// concurrent checks for one team, but usage recorded after the guarded
// call can still land past the cap.
type Guard struct {
	teams     TeamStore
	usage     UsageStore
	txManager TransactionManager
	logger    *slog.Logger
}

func NewGuard(teams TeamStore, usage UsageStore, txManager TransactionManager, logger *slog.Logger) *Guard {
	return &Guard{
		teams:     teams,
		usage:     usage,
		txManager: txManager,
		logger:    logger.With("component", "quota_guard"),
	}
}

// Assert fails with a TokenLimitExceededError when the team's
// current-month usage plus tokensToAdd reaches its monthly limit.
// tokensToAdd is the caller's best-effort pre-estimate; 0 means "check
// only current usage". A limit of zero means unlimited and short-circuits
// without touching the ledger.
func (g *Guard) Assert(ctx context.Context, teamID int64, tokensToAdd int64, userID *int64, operation string) error {
	team, err := g.teams.Get(ctx, teamID)
	if err != nil {
		return fmt.Errorf("load team: %w", err)
	}

	if team.MonthlyTokenLimit <= 0 {
		return nil
	}

	return g.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := g.usage.MonthlyTotalLocked(txCtx, teamID)
		if err != nil {
			return fmt.Errorf("read monthly usage: %w", err)
		}

		if current+tokensToAdd >= team.MonthlyTokenLimit {
			g.logger.Warn("token limit exceeded",
				"team_id", teamID,
				"current_usage", current,
				"limit", team.MonthlyTokenLimit,
				"operation", operation,
			)
			return &domain.TokenLimitExceededError{
				TeamID:       teamID,
				UserID:       userID,
				CurrentUsage: current,
				Limit:        team.MonthlyTokenLimit,
				Operation:    operation,
			}
		}
		return nil
	})
}

// Record appends the actual token counts of a completed AI call to the
// ledger. Future Assert calls see this usage.
func (g *Guard) Record(ctx context.Context, teamID int64, userID *int64, usage domain.TokenUsage, model, operation string) error {
	err := g.usage.Append(ctx, domain.TokenUsageLog{
		TeamID:       teamID,
		UserID:       userID,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
		Model:        model,
		Operation:    operation,
	})
	if err != nil {
		return fmt.Errorf("record token usage: %w", err)
	}

	g.logger.Debug("recorded token usage",
		"team_id", teamID,
		"operation", operation,
		"model", model,
		"total_tokens", usage.TotalTokens,
	)
	return nil
}
