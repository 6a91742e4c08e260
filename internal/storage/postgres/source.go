package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"contentradar/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type sourceRow struct {
	ID                  int64          `db:"id"`
	TeamID              int64          `db:"team_id"`
	Name                string         `db:"name"`
	Type                string         `db:"type"`
	URL                 string         `db:"url"`
	TitleSelector       sql.NullString `db:"title_selector"`
	LinkSelector        sql.NullString `db:"link_selector"`
	Keywords            sql.NullString `db:"keywords"`
	Interval            string         `db:"monitoring_interval"`
	IsActive            bool           `db:"is_active"`
	ShouldNotify        bool           `db:"should_notify"`
	AutoSummarize       bool           `db:"auto_summarize"`
	BypassKeywordFilter bool           `db:"bypass_keyword_filter"`
	LastCheckedAt       *time.Time     `db:"last_checked_at"`
	NextCheckAt         *time.Time     `db:"next_check_at"`
	ConsecutiveFailures int            `db:"consecutive_failures"`
	FailedAt            *time.Time     `db:"failed_at"`
	LastRunStatus       sql.NullString `db:"last_run_status"`
	LastRunError        sql.NullString `db:"last_run_error"`
	DeletedAt           *time.Time     `db:"deleted_at"`
	CreatedAt           time.Time      `db:"created_at"`
}

func (r sourceRow) toDomain() domain.Source {
	return domain.Source{
		ID:                  r.ID,
		TeamID:              r.TeamID,
		Name:                r.Name,
		Type:                domain.SourceType(r.Type),
		URL:                 r.URL,
		TitleSelector:       r.TitleSelector.String,
		LinkSelector:        r.LinkSelector.String,
		Keywords:            r.Keywords.String,
		Interval:            domain.MonitoringInterval(r.Interval),
		IsActive:            r.IsActive,
		ShouldNotify:        r.ShouldNotify,
		AutoSummarize:       r.AutoSummarize,
		BypassKeywordFilter: r.BypassKeywordFilter,
		LastCheckedAt:       r.LastCheckedAt,
		NextCheckAt:         r.NextCheckAt,
		ConsecutiveFailures: r.ConsecutiveFailures,
		FailedAt:            r.FailedAt,
		LastRunStatus:       domain.RunStatus(r.LastRunStatus.String),
		LastRunError:        r.LastRunError.String,
		DeletedAt:           r.DeletedAt,
		CreatedAt:           r.CreatedAt,
	}
}

const sourceColumns = `
	id, team_id, name, type, url, title_selector, link_selector, keywords,
	monitoring_interval, is_active, should_notify, auto_summarize,
	bypass_keyword_filter, last_checked_at, next_check_at,
	consecutive_failures, failed_at, last_run_status, last_run_error,
	deleted_at, created_at`

type SourceStore struct {
	db *sqlx.DB
}

func NewSourceStore(db *sqlx.DB) *SourceStore {
	return &SourceStore{db: db}
}

// Get loads one source by id, soft-deleted ones included: the worker makes
// its own liveness decision so it can distinguish "gone" from "deactivated".
func (s *SourceStore) Get(ctx context.Context, id int64) (domain.Source, error) {
	var row sourceRow
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1`
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if err == sql.ErrNoRows {
		return domain.Source{}, ErrNotFound
	}
	if err != nil {
		return domain.Source{}, fmt.Errorf("get source: %w", err)
	}
	return row.toDomain(), nil
}

// ListDue returns active, non-deleted sources whose next check is due.
// A source with is_active = false is never selected regardless of
// next_check_at.
func (s *SourceStore) ListDue(ctx context.Context, now time.Time) ([]domain.Source, error) {
	query := `
		SELECT ` + sourceColumns + `
		FROM sources
		WHERE is_active = TRUE
		  AND deleted_at IS NULL
		  AND type <> $1
		  AND (next_check_at IS NULL OR next_check_at <= $2)
		ORDER BY id`

	var rows []sourceRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, string(domain.SourceTypeWebhook), now); err != nil {
		return nil, fmt.Errorf("list due sources: %w", err)
	}

	sources := make([]domain.Source, 0, len(rows))
	for _, row := range rows {
		sources = append(sources, row.toDomain())
	}
	return sources, nil
}

// RecordCheckSuccess stamps a successful run: check timestamps move
// forward, the failure counter resets. No other columns are touched.
func (s *SourceStore) RecordCheckSuccess(ctx context.Context, id int64, checkedAt, nextCheckAt time.Time) error {
	query := `
		UPDATE sources SET
			last_checked_at = $2,
			next_check_at = $3,
			consecutive_failures = 0,
			failed_at = NULL,
			last_run_status = $4,
			last_run_error = NULL
		WHERE id = $1`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, checkedAt, nextCheckAt, string(domain.RunStatusOK))
	if err != nil {
		return fmt.Errorf("record check success: %w", err)
	}
	return nil
}

// RecordCheckFailure stamps a terminally failed run: the failure counter
// increments and the error is kept for the source health view. The next
// check is still scheduled so a transient outage self-heals.
func (s *SourceStore) RecordCheckFailure(ctx context.Context, id int64, failedAt, nextCheckAt time.Time, runErr string) error {
	query := `
		UPDATE sources SET
			last_checked_at = $2,
			next_check_at = $3,
			consecutive_failures = consecutive_failures + 1,
			failed_at = $2,
			last_run_status = $4,
			last_run_error = $5
		WHERE id = $1`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, failedAt, nextCheckAt, string(domain.RunStatusFailed), runErr)
	if err != nil {
		return fmt.Errorf("record check failure: %w", err)
	}
	return nil
}
