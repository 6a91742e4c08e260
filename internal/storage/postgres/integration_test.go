//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"contentradar/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_teams.up.sql"),
			filepath.Join(migrationsPath, "002_create_sources.up.sql"),
			filepath.Join(migrationsPath, "003_create_posts.up.sql"),
			filepath.Join(migrationsPath, "004_create_token_usage_logs.up.sql"),
			filepath.Join(migrationsPath, "005_create_content.up.sql"),
			filepath.Join(migrationsPath, "006_create_webhooks.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM background_sources")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM content_derivatives")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM content_pieces")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM webhooks")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM token_usage_logs")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM posts")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM sources")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM teams")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) createTeam(limit int64) int64 {
	var id int64
	err := s.db.GetContext(s.ctx, &id, `
		INSERT INTO teams (name, monthly_token_limit) VALUES ('Test Team', $1) RETURNING id`, limit)
	s.Require().NoError(err)
	return id
}

func (s *PostgresIntegrationSuite) createSource(teamID int64, active bool, nextCheckAt *time.Time) int64 {
	var id int64
	err := s.db.GetContext(s.ctx, &id, `
		INSERT INTO sources (team_id, name, type, url, is_active, next_check_at)
		VALUES ($1, 'Test Source', 'rss', 'https://example.com/feed', $2, $3)
		RETURNING id`, teamID, active, nextCheckAt)
	s.Require().NoError(err)
	return id
}

func (s *PostgresIntegrationSuite) TestPostStore_InsertIfAbsent_Dedupes() {
	teamID := s.createTeam(0)
	sourceID := s.createSource(teamID, true, nil)
	store := NewPostStore(s.db)
	now := time.Now()

	id1, created, err := store.InsertIfAbsent(s.ctx, sourceID, "https://example.com/a", "Post A", now)
	s.NoError(err)
	s.True(created)
	s.Greater(id1, int64(0))

	id2, created, err := store.InsertIfAbsent(s.ctx, sourceID, "https://example.com/a", "Post A again", now)
	s.NoError(err)
	s.False(created)
	s.Equal(int64(0), id2)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM posts WHERE source_id = $1", sourceID)
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestPostStore_SameURIDifferentSources() {
	teamID := s.createTeam(0)
	source1 := s.createSource(teamID, true, nil)
	source2 := s.createSource(teamID, true, nil)
	store := NewPostStore(s.db)
	now := time.Now()

	_, created, err := store.InsertIfAbsent(s.ctx, source1, "https://example.com/a", "A", now)
	s.NoError(err)
	s.True(created)

	_, created, err = store.InsertIfAbsent(s.ctx, source2, "https://example.com/a", "A", now)
	s.NoError(err)
	s.True(created)
}

func (s *PostgresIntegrationSuite) TestPostStore_UpdateSummary() {
	teamID := s.createTeam(0)
	sourceID := s.createSource(teamID, true, nil)
	store := NewPostStore(s.db)

	id, _, err := store.InsertIfAbsent(s.ctx, sourceID, "https://example.com/a", "Post A", time.Now())
	s.Require().NoError(err)

	err = store.UpdateSummary(s.ctx, id, domain.PostSummary{
		Summary:        "A summary.",
		RelevancyScore: 75,
		Title:          "Internal Title",
	})
	s.NoError(err)

	post, err := store.Get(s.ctx, id)
	s.NoError(err)
	s.Require().NotNil(post.Summary)
	s.Equal("A summary.", *post.Summary)
	s.Require().NotNil(post.RelevancyScore)
	s.Equal(75, *post.RelevancyScore)
	s.Equal("Internal Title", post.InternalTitle)
	// Untouched fields keep their values.
	s.Equal("Post A", post.ExternalTitle)
	s.Equal(domain.PostStatusNotRelevant, post.Status)
}

func (s *PostgresIntegrationSuite) TestSourceStore_ListDue() {
	teamID := s.createTeam(0)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	dueID := s.createSource(teamID, true, &past)
	s.createSource(teamID, true, &future)
	s.createSource(teamID, false, &past)
	neverCheckedID := s.createSource(teamID, true, nil)

	deletedID := s.createSource(teamID, true, &past)
	_, err := s.db.ExecContext(s.ctx, "UPDATE sources SET deleted_at = now() WHERE id = $1", deletedID)
	s.Require().NoError(err)

	store := NewSourceStore(s.db)
	due, err := store.ListDue(s.ctx, time.Now())
	s.NoError(err)
	s.Require().Len(due, 2)
	s.Equal(dueID, due[0].ID)
	s.Equal(neverCheckedID, due[1].ID)
}

func (s *PostgresIntegrationSuite) TestSourceStore_FailureCounter() {
	teamID := s.createTeam(0)
	sourceID := s.createSource(teamID, true, nil)
	store := NewSourceStore(s.db)
	now := time.Now()
	next := now.Add(time.Hour)

	s.NoError(store.RecordCheckFailure(s.ctx, sourceID, now, next, "fetch failed"))
	s.NoError(store.RecordCheckFailure(s.ctx, sourceID, now, next, "fetch failed again"))

	src, err := store.Get(s.ctx, sourceID)
	s.NoError(err)
	s.Equal(2, src.ConsecutiveFailures)
	s.Equal(domain.RunStatusFailed, src.LastRunStatus)
	s.Equal("fetch failed again", src.LastRunError)
	s.NotNil(src.NextCheckAt)

	s.NoError(store.RecordCheckSuccess(s.ctx, sourceID, now, next))

	src, err = store.Get(s.ctx, sourceID)
	s.NoError(err)
	s.Equal(0, src.ConsecutiveFailures)
	s.Equal(domain.RunStatusOK, src.LastRunStatus)
	s.Empty(src.LastRunError)
}

func (s *PostgresIntegrationSuite) TestTokenUsage_MonthlyTotal() {
	teamID := s.createTeam(10_000)
	store := NewTokenUsageStore(s.db)
	tm := NewTransactionManager(s.db)

	s.NoError(store.Append(s.ctx, domain.TokenUsageLog{TeamID: teamID, TotalTokens: 4_000, Operation: "summarize_post"}))
	s.NoError(store.Append(s.ctx, domain.TokenUsageLog{TeamID: teamID, TotalTokens: 2_500, Operation: "generate_content_piece"}))

	// A previous month's row must not count.
	_, err := s.db.ExecContext(s.ctx, `
		INSERT INTO token_usage_logs (team_id, total_tokens, created_at)
		VALUES ($1, 9000, now() - interval '40 days')`, teamID)
	s.Require().NoError(err)

	err = tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		total, err := store.MonthlyTotalLocked(ctx, teamID)
		s.NoError(err)
		s.Equal(int64(6_500), total)
		return nil
	})
	s.NoError(err)
}

func (s *PostgresIntegrationSuite) TestContentStore_GenerationTransitions() {
	teamID := s.createTeam(0)
	store := NewContentStore(s.db)

	var pieceID int64
	err := s.db.GetContext(s.ctx, &pieceID, `
		INSERT INTO content_pieces (team_id, title) VALUES ($1, 'Draft') RETURNING id`, teamID)
	s.Require().NoError(err)

	ok, err := store.TryMarkPieceQueued(s.ctx, pieceID)
	s.NoError(err)
	s.True(ok)

	// Queued pieces reject another queue request.
	ok, err = store.TryMarkPieceQueued(s.ctx, pieceID)
	s.NoError(err)
	s.False(ok)

	ok, err = store.TryStartPiece(s.ctx, pieceID)
	s.NoError(err)
	s.True(ok)

	// Redelivery of the same task may resume processing.
	ok, err = store.TryStartPiece(s.ctx, pieceID)
	s.NoError(err)
	s.True(ok)

	s.NoError(store.SetPieceCompleted(s.ctx, pieceID, "Generated Title", "Generated body"))

	piece, err := store.GetPiece(s.ctx, pieceID)
	s.NoError(err)
	s.Equal(domain.GenerationCompleted, piece.Status)
	s.Equal("Generated Title", piece.GeneratedTitle)
	s.Empty(piece.ErrorMessage)

	// Completed pieces can be re-queued.
	ok, err = store.TryMarkPieceQueued(s.ctx, pieceID)
	s.NoError(err)
	s.True(ok)
}

func (s *PostgresIntegrationSuite) TestContentStore_BackgroundSourceOrder() {
	teamID := s.createTeam(0)
	sourceID := s.createSource(teamID, true, nil)
	posts := NewPostStore(s.db)
	postID, _, err := posts.InsertIfAbsent(s.ctx, sourceID, "https://example.com/a", "Post A", time.Now())
	s.Require().NoError(err)

	var pieceID int64
	err = s.db.GetContext(s.ctx, &pieceID, `
		INSERT INTO content_pieces (team_id, title) VALUES ($1, 'Draft') RETURNING id`, teamID)
	s.Require().NoError(err)

	_, err = s.db.ExecContext(s.ctx, `
		INSERT INTO background_sources (content_piece_id, kind, title, text, position)
		VALUES ($1, 'manual', 'Memo', 'memo text', 2)`, pieceID)
	s.Require().NoError(err)
	_, err = s.db.ExecContext(s.ctx, `
		INSERT INTO background_sources (content_piece_id, kind, post_id, position)
		VALUES ($1, 'post', $2, 1)`, pieceID, postID)
	s.Require().NoError(err)

	store := NewContentStore(s.db)
	sources, err := store.ListBackgroundSources(s.ctx, pieceID)
	s.NoError(err)
	s.Require().Len(sources, 2)

	ref, ok := sources[0].(domain.PostRef)
	s.Require().True(ok)
	s.Equal(postID, ref.PostID)

	manual, ok := sources[1].(domain.ManualText)
	s.Require().True(ok)
	s.Equal("Memo", manual.Title)
	s.Equal("memo text", manual.Text)
}

func (s *PostgresIntegrationSuite) TestWebhookStore_AutoDisable() {
	teamID := s.createTeam(0)
	store := NewWebhookStore(s.db)

	var hookID int64
	err := s.db.GetContext(s.ctx, &hookID, `
		INSERT INTO webhooks (team_id, url) VALUES ($1, 'https://example.com/hook') RETURNING id`, teamID)
	s.Require().NoError(err)

	for i := 0; i < domain.MaxWebhookFailures; i++ {
		s.NoError(store.RecordDeliveryFailure(s.ctx, hookID))
	}

	hook, err := store.Get(s.ctx, hookID)
	s.NoError(err)
	s.False(hook.IsActive)
	s.Equal(domain.MaxWebhookFailures, hook.ConsecutiveFailures)

	// Success resets the counter but does not re-enable.
	s.NoError(store.RecordDeliverySuccess(s.ctx, hookID))
	hook, err = store.Get(s.ctx, hookID)
	s.NoError(err)
	s.Equal(0, hook.ConsecutiveFailures)
	s.False(hook.IsActive)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	teamID := s.createTeam(0)
	store := NewTokenUsageStore(s.db)
	tm := NewTransactionManager(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := store.Append(ctx, domain.TokenUsageLog{TeamID: teamID, TotalTokens: 100}); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM token_usage_logs WHERE team_id = $1", teamID)
	s.NoError(err)
	s.Equal(0, count)
}
