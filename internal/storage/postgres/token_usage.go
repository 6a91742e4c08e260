package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"contentradar/internal/domain"
)

type TokenUsageStore struct {
	db *sqlx.DB
}

func NewTokenUsageStore(db *sqlx.DB) *TokenUsageStore {
	return &TokenUsageStore{db: db}
}

// Append writes one ledger row. The ledger is append-only; rows are never
// updated afterwards.
func (s *TokenUsageStore) Append(ctx context.Context, log domain.TokenUsageLog) error {
	query := `
		INSERT INTO token_usage_logs
			(team_id, user_id, input_tokens, output_tokens, total_tokens, model, operation)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		log.TeamID, log.UserID, log.InputTokens, log.OutputTokens,
		log.TotalTokens, log.Model, log.Operation)
	if err != nil {
		return fmt.Errorf("append token usage: %w", err)
	}
	return nil
}

// MonthlyTotalLocked sums total_tokens for the team in the current
// calendar month (server clock, month+year equality, not a rolling
// window). The team row is locked first so concurrent guard checks for
// one team serialize; call inside a transaction.
func (s *TokenUsageStore) MonthlyTotalLocked(ctx context.Context, teamID int64) (int64, error) {
	exec := GetExecutor(ctx, s.db)

	if _, err := exec.ExecContext(ctx, `SELECT id FROM teams WHERE id = $1 FOR UPDATE`, teamID); err != nil {
		return 0, fmt.Errorf("lock team row: %w", err)
	}

	var total int64
	query := `
		SELECT COALESCE(SUM(total_tokens), 0)
		FROM token_usage_logs
		WHERE team_id = $1
		  AND date_trunc('month', created_at) = date_trunc('month', now())`

	if err := sqlx.GetContext(ctx, exec, &total, query, teamID); err != nil {
		return 0, fmt.Errorf("sum monthly usage: %w", err)
	}
	return total, nil
}

// PruneOlderThan deletes ledger rows older than the given number of
// months. Scheduled cleanup is the only deletion path for the ledger.
func (s *TokenUsageStore) PruneOlderThan(ctx context.Context, months int) (int64, error) {
	query := `DELETE FROM token_usage_logs WHERE created_at < now() - ($1 || ' months')::interval`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, months)
	if err != nil {
		return 0, fmt.Errorf("prune token usage: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
