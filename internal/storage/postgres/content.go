package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"contentradar/internal/domain"
)

type contentPieceRow struct {
	ID             int64          `db:"id"`
	TeamID         int64          `db:"team_id"`
	Title          string         `db:"title"`
	Briefing       sql.NullString `db:"briefing"`
	Language       sql.NullString `db:"language"`
	PromptTemplate sql.NullString `db:"prompt_template"`
	Status         string         `db:"status"`
	ErrorMessage   sql.NullString `db:"error_message"`
	GeneratedTitle sql.NullString `db:"generated_title"`
	GeneratedText  sql.NullString `db:"generated_text"`
}

func (r contentPieceRow) toDomain() domain.ContentPiece {
	return domain.ContentPiece{
		ID:             r.ID,
		TeamID:         r.TeamID,
		Title:          r.Title,
		Briefing:       r.Briefing.String,
		Language:       r.Language.String,
		PromptTemplate: r.PromptTemplate.String,
		Status:         domain.GenerationStatus(r.Status),
		ErrorMessage:   r.ErrorMessage.String,
		GeneratedTitle: r.GeneratedTitle.String,
		GeneratedText:  r.GeneratedText.String,
	}
}

type derivativeRow struct {
	ID             int64          `db:"id"`
	ContentPieceID int64          `db:"content_piece_id"`
	Channel        string         `db:"channel"`
	PromptTemplate sql.NullString `db:"prompt_template"`
	Status         string         `db:"status"`
	ErrorMessage   sql.NullString `db:"error_message"`
	GeneratedText  sql.NullString `db:"generated_text"`
}

func (r derivativeRow) toDomain() domain.ContentDerivative {
	return domain.ContentDerivative{
		ID:             r.ID,
		ContentPieceID: r.ContentPieceID,
		Channel:        r.Channel,
		PromptTemplate: r.PromptTemplate.String,
		Status:         domain.GenerationStatus(r.Status),
		ErrorMessage:   r.ErrorMessage.String,
		GeneratedText:  r.GeneratedText.String,
	}
}

type backgroundSourceRow struct {
	ID     int64          `db:"id"`
	Kind   string         `db:"kind"`
	PostID *int64         `db:"post_id"`
	Title  sql.NullString `db:"title"`
	Text   sql.NullString `db:"text"`
	URL    sql.NullString `db:"url"`
}

type ContentStore struct {
	db *sqlx.DB
}

func NewContentStore(db *sqlx.DB) *ContentStore {
	return &ContentStore{db: db}
}

func (s *ContentStore) GetPiece(ctx context.Context, id int64) (domain.ContentPiece, error) {
	var row contentPieceRow
	query := `
		SELECT id, team_id, title, briefing, language, prompt_template,
		       status, error_message, generated_title, generated_text
		FROM content_pieces WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if err == sql.ErrNoRows {
		return domain.ContentPiece{}, ErrNotFound
	}
	if err != nil {
		return domain.ContentPiece{}, fmt.Errorf("get content piece: %w", err)
	}
	return row.toDomain(), nil
}

func (s *ContentStore) GetDerivative(ctx context.Context, id int64) (domain.ContentDerivative, error) {
	var row derivativeRow
	query := `
		SELECT id, content_piece_id, channel, prompt_template, status,
		       error_message, generated_text
		FROM content_derivatives WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if err == sql.ErrNoRows {
		return domain.ContentDerivative{}, ErrNotFound
	}
	if err != nil {
		return domain.ContentDerivative{}, fmt.Errorf("get derivative: %w", err)
	}
	return row.toDomain(), nil
}

// ListBackgroundSources returns a piece's background material in display
// order, decoded into the post-reference or manual-text variant by the
// row's kind discriminator.
func (s *ContentStore) ListBackgroundSources(ctx context.Context, pieceID int64) ([]domain.BackgroundSource, error) {
	query := `
		SELECT id, kind, post_id, title, text, url
		FROM background_sources
		WHERE content_piece_id = $1
		ORDER BY position, id`

	var rows []backgroundSourceRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, pieceID); err != nil {
		return nil, fmt.Errorf("list background sources: %w", err)
	}

	sources := make([]domain.BackgroundSource, 0, len(rows))
	for _, row := range rows {
		switch row.Kind {
		case "post":
			if row.PostID == nil {
				continue
			}
			sources = append(sources, domain.PostRef{PostID: *row.PostID})
		case "manual":
			sources = append(sources, domain.ManualText{
				Title: row.Title.String,
				Text:  row.Text.String,
				URL:   row.URL.String,
			})
		}
	}
	return sources, nil
}

// TryMarkPieceQueued transitions idle/completed/failed -> queued. Returns
// false when the piece is already in flight, which drops the request.
func (s *ContentStore) TryMarkPieceQueued(ctx context.Context, id int64) (bool, error) {
	return s.tryTransition(ctx, "content_pieces", id,
		`UPDATE content_pieces SET status = $2, error_message = NULL
		 WHERE id = $1 AND status IN ($3, $4, $5)`,
		string(domain.GenerationQueued),
		string(domain.GenerationIdle), string(domain.GenerationCompleted), string(domain.GenerationFailed))
}

// TryStartPiece transitions queued/processing -> processing, clearing prior
// error. Processing is allowed again so queue redeliveries of the same task
// can resume after a crashed attempt.
func (s *ContentStore) TryStartPiece(ctx context.Context, id int64) (bool, error) {
	return s.tryTransition(ctx, "content_pieces", id,
		`UPDATE content_pieces SET status = $2, error_message = NULL
		 WHERE id = $1 AND status IN ($3, $4)`,
		string(domain.GenerationProcessing),
		string(domain.GenerationQueued), string(domain.GenerationProcessing))
}

func (s *ContentStore) SetPieceCompleted(ctx context.Context, id int64, title, text string) error {
	query := `
		UPDATE content_pieces SET
			status = $2, error_message = NULL, generated_title = $3, generated_text = $4
		WHERE id = $1`
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, string(domain.GenerationCompleted), title, text)
	if err != nil {
		return fmt.Errorf("complete content piece: %w", err)
	}
	return nil
}

func (s *ContentStore) SetPieceFailed(ctx context.Context, id int64, message string) error {
	query := `UPDATE content_pieces SET status = $2, error_message = $3 WHERE id = $1`
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, string(domain.GenerationFailed), message)
	if err != nil {
		return fmt.Errorf("fail content piece: %w", err)
	}
	return nil
}

// TryMarkDerivativeQueued mirrors TryMarkPieceQueued for derivatives.
func (s *ContentStore) TryMarkDerivativeQueued(ctx context.Context, id int64) (bool, error) {
	return s.tryTransition(ctx, "content_derivatives", id,
		`UPDATE content_derivatives SET status = $2, error_message = NULL
		 WHERE id = $1 AND status IN ($3, $4, $5)`,
		string(domain.GenerationQueued),
		string(domain.GenerationIdle), string(domain.GenerationCompleted), string(domain.GenerationFailed))
}

func (s *ContentStore) TryStartDerivative(ctx context.Context, id int64) (bool, error) {
	return s.tryTransition(ctx, "content_derivatives", id,
		`UPDATE content_derivatives SET status = $2, error_message = NULL
		 WHERE id = $1 AND status IN ($3, $4)`,
		string(domain.GenerationProcessing),
		string(domain.GenerationQueued), string(domain.GenerationProcessing))
}

func (s *ContentStore) SetDerivativeCompleted(ctx context.Context, id int64, text string) error {
	query := `
		UPDATE content_derivatives SET
			status = $2, error_message = NULL, generated_text = $3
		WHERE id = $1`
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, string(domain.GenerationCompleted), text)
	if err != nil {
		return fmt.Errorf("complete derivative: %w", err)
	}
	return nil
}

func (s *ContentStore) SetDerivativeFailed(ctx context.Context, id int64, message string) error {
	query := `UPDATE content_derivatives SET status = $2, error_message = $3 WHERE id = $1`
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, string(domain.GenerationFailed), message)
	if err != nil {
		return fmt.Errorf("fail derivative: %w", err)
	}
	return nil
}

func (s *ContentStore) tryTransition(ctx context.Context, table string, id int64, query string, args ...any) (bool, error) {
	qargs := append([]any{id}, args...)
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, qargs...)
	if err != nil {
		return false, fmt.Errorf("transition %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition %s: %w", table, err)
	}
	return n > 0, nil
}
