package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"contentradar/internal/domain"
)

type postRow struct {
	ID             int64          `db:"id"`
	SourceID       int64          `db:"source_id"`
	URI            string         `db:"uri"`
	ExternalTitle  sql.NullString `db:"external_title"`
	InternalTitle  sql.NullString `db:"internal_title"`
	Summary        *string        `db:"summary"`
	RelevancyScore *int           `db:"relevancy_score"`
	IsHidden       bool           `db:"is_hidden"`
	Status         string         `db:"status"`
	FoundAt        time.Time      `db:"found_at"`
}

func (r postRow) toDomain() domain.Post {
	return domain.Post{
		ID:             r.ID,
		SourceID:       r.SourceID,
		URI:            r.URI,
		ExternalTitle:  r.ExternalTitle.String,
		InternalTitle:  r.InternalTitle.String,
		Summary:        r.Summary,
		RelevancyScore: r.RelevancyScore,
		IsHidden:       r.IsHidden,
		Status:         domain.PostStatus(r.Status),
		FoundAt:        r.FoundAt,
	}
}

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// InsertIfAbsent creates a post unless the (source_id, uri) pair already
// exists. The unique constraint is the correctness backstop: concurrent
// monitoring runs for the same source race here, and exactly one insert
// wins. Existing rows are never touched.
func (s *PostStore) InsertIfAbsent(ctx context.Context, sourceID int64, uri, title string, foundAt time.Time) (int64, bool, error) {
	query := `
		INSERT INTO posts (source_id, uri, external_title, status, found_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_id, uri) DO NOTHING
		RETURNING id`

	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id, query,
		sourceID, uri, title, string(domain.PostStatusNotRelevant), foundAt)
	if err == sql.ErrNoRows {
		// Conflict: the post was already known.
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert post: %w", err)
	}
	return id, true, nil
}

func (s *PostStore) Get(ctx context.Context, id int64) (domain.Post, error) {
	var row postRow
	query := `
		SELECT id, source_id, uri, external_title, internal_title, summary,
		       relevancy_score, is_hidden, status, found_at
		FROM posts WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if err == sql.ErrNoRows {
		return domain.Post{}, ErrNotFound
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("get post: %w", err)
	}
	return row.toDomain(), nil
}

// UpdateSummary writes the AI-assigned fields and nothing else: status,
// hidden flag and uri stay as the user left them.
func (s *PostStore) UpdateSummary(ctx context.Context, id int64, summary domain.PostSummary) error {
	query := `
		UPDATE posts SET
			summary = $2,
			relevancy_score = $3,
			internal_title = $4
		WHERE id = $1`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, summary.Summary, summary.RelevancyScore, summary.Title)
	if err != nil {
		return fmt.Errorf("update post summary: %w", err)
	}
	return nil
}

// GetByIDs loads posts preserving input order; missing ids are skipped.
func (s *PostStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, source_id, uri, external_title, internal_title, summary,
		       relevancy_score, is_hidden, status, found_at
		FROM posts WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = s.db.Rebind(query)

	var rows []postRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get posts: %w", err)
	}

	byID := make(map[int64]domain.Post, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.toDomain()
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}
