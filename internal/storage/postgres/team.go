package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"contentradar/internal/domain"
)

type teamRow struct {
	ID                int64          `db:"id"`
	Name              string         `db:"name"`
	MonthlyTokenLimit int64          `db:"monthly_token_limit"`
	PositiveKeywords  sql.NullString `db:"positive_keywords"`
	NegativeKeywords  sql.NullString `db:"negative_keywords"`
	AIAPIKey          sql.NullString `db:"ai_api_key"`
	AIBaseURL         sql.NullString `db:"ai_base_url"`
	AIModel           sql.NullString `db:"ai_model"`
	AILanguage        sql.NullString `db:"ai_language"`
	OwnerUserID       int64          `db:"owner_user_id"`
}

func (r teamRow) toDomain() domain.Team {
	return domain.Team{
		ID:                r.ID,
		Name:              r.Name,
		MonthlyTokenLimit: r.MonthlyTokenLimit,
		PositiveKeywords:  r.PositiveKeywords.String,
		NegativeKeywords:  r.NegativeKeywords.String,
		AIProvider: domain.AIProviderConfig{
			APIKey:   r.AIAPIKey.String,
			BaseURL:  r.AIBaseURL.String,
			Model:    r.AIModel.String,
			Language: r.AILanguage.String,
		},
		OwnerUserID: r.OwnerUserID,
	}
}

type TeamStore struct {
	db *sqlx.DB
}

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) Get(ctx context.Context, id int64) (domain.Team, error) {
	var row teamRow
	query := `
		SELECT id, name, monthly_token_limit, positive_keywords,
		       negative_keywords, ai_api_key, ai_base_url, ai_model,
		       ai_language, owner_user_id
		FROM teams WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if err == sql.ErrNoRows {
		return domain.Team{}, ErrNotFound
	}
	if err != nil {
		return domain.Team{}, fmt.Errorf("get team: %w", err)
	}
	return row.toDomain(), nil
}
