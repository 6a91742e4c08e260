package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"contentradar/internal/domain"
)

type webhookRow struct {
	ID                  int64          `db:"id"`
	TeamID              int64          `db:"team_id"`
	URL                 string         `db:"url"`
	Secret              sql.NullString `db:"secret"`
	IsActive            bool           `db:"is_active"`
	ConsecutiveFailures int            `db:"consecutive_failures"`
}

func (r webhookRow) toDomain() domain.Webhook {
	return domain.Webhook{
		ID:                  r.ID,
		TeamID:              r.TeamID,
		URL:                 r.URL,
		Secret:              r.Secret.String,
		IsActive:            r.IsActive,
		ConsecutiveFailures: r.ConsecutiveFailures,
	}
}

type WebhookStore struct {
	db *sqlx.DB
}

func NewWebhookStore(db *sqlx.DB) *WebhookStore {
	return &WebhookStore{db: db}
}

func (s *WebhookStore) Get(ctx context.Context, id int64) (domain.Webhook, error) {
	var row webhookRow
	query := `SELECT id, team_id, url, secret, is_active, consecutive_failures FROM webhooks WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if err == sql.ErrNoRows {
		return domain.Webhook{}, ErrNotFound
	}
	if err != nil {
		return domain.Webhook{}, fmt.Errorf("get webhook: %w", err)
	}
	return row.toDomain(), nil
}

func (s *WebhookStore) ListActiveForTeam(ctx context.Context, teamID int64) ([]domain.Webhook, error) {
	query := `
		SELECT id, team_id, url, secret, is_active, consecutive_failures
		FROM webhooks
		WHERE team_id = $1 AND is_active = TRUE
		ORDER BY id`

	var rows []webhookRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}

	hooks := make([]domain.Webhook, 0, len(rows))
	for _, row := range rows {
		hooks = append(hooks, row.toDomain())
	}
	return hooks, nil
}

// RecordDeliverySuccess resets the consecutive failure counter.
func (s *WebhookStore) RecordDeliverySuccess(ctx context.Context, id int64) error {
	query := `UPDATE webhooks SET consecutive_failures = 0 WHERE id = $1`
	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("record webhook success: %w", err)
	}
	return nil
}

// RecordDeliveryFailure increments the failure counter and disables the
// webhook once it reaches the limit, in one atomic update.
func (s *WebhookStore) RecordDeliveryFailure(ctx context.Context, id int64) error {
	query := `
		UPDATE webhooks SET
			consecutive_failures = consecutive_failures + 1,
			is_active = is_active AND (consecutive_failures + 1 < $2)
		WHERE id = $1`
	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, domain.MaxWebhookFailures); err != nil {
		return fmt.Errorf("record webhook failure: %w", err)
	}
	return nil
}
