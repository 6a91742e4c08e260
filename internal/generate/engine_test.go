package generate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentradar/internal/ai"
	"contentradar/internal/domain"
	"contentradar/internal/queue"
	"contentradar/internal/storage/postgres"
)

type fakeContentStore struct {
	piece      domain.ContentPiece
	derivative domain.ContentDerivative
	background []domain.BackgroundSource

	pieceErr      error
	derivativeErr error

	queuedOK bool
	startOK  bool

	markedQueued    []int64
	started         []int64
	completedTitle  string
	completedText   string
	completedCalled bool
	failedMessage   string
	failedCalled    bool
}

func (f *fakeContentStore) GetPiece(context.Context, int64) (domain.ContentPiece, error) {
	return f.piece, f.pieceErr
}

func (f *fakeContentStore) GetDerivative(context.Context, int64) (domain.ContentDerivative, error) {
	return f.derivative, f.derivativeErr
}

func (f *fakeContentStore) ListBackgroundSources(context.Context, int64) ([]domain.BackgroundSource, error) {
	return f.background, nil
}

func (f *fakeContentStore) TryMarkPieceQueued(_ context.Context, id int64) (bool, error) {
	f.markedQueued = append(f.markedQueued, id)
	return f.queuedOK, nil
}

func (f *fakeContentStore) TryStartPiece(_ context.Context, id int64) (bool, error) {
	f.started = append(f.started, id)
	return f.startOK, nil
}

func (f *fakeContentStore) SetPieceCompleted(_ context.Context, _ int64, title, text string) error {
	f.completedCalled = true
	f.completedTitle = title
	f.completedText = text
	return nil
}

func (f *fakeContentStore) SetPieceFailed(_ context.Context, _ int64, message string) error {
	f.failedCalled = true
	f.failedMessage = message
	return nil
}

func (f *fakeContentStore) TryMarkDerivativeQueued(_ context.Context, id int64) (bool, error) {
	f.markedQueued = append(f.markedQueued, id)
	return f.queuedOK, nil
}

func (f *fakeContentStore) TryStartDerivative(_ context.Context, id int64) (bool, error) {
	f.started = append(f.started, id)
	return f.startOK, nil
}

func (f *fakeContentStore) SetDerivativeCompleted(_ context.Context, _ int64, text string) error {
	f.completedCalled = true
	f.completedText = text
	return nil
}

func (f *fakeContentStore) SetDerivativeFailed(_ context.Context, _ int64, message string) error {
	f.failedCalled = true
	f.failedMessage = message
	return nil
}

type fakePostStore struct {
	posts []domain.Post
}

func (f *fakePostStore) GetByIDs(context.Context, []int64) ([]domain.Post, error) {
	return f.posts, nil
}

type fakeTeamStore struct {
	team domain.Team
}

func (f *fakeTeamStore) Get(context.Context, int64) (domain.Team, error) {
	return f.team, nil
}

type fakeGuard struct {
	assertErr      error
	recordedTotal  int
	recordedOp     string
	recordedCalled bool
}

func (f *fakeGuard) Assert(context.Context, int64, int64, *int64, string) error {
	return f.assertErr
}

func (f *fakeGuard) Record(_ context.Context, _ int64, _ *int64, usage domain.TokenUsage, _, operation string) error {
	f.recordedCalled = true
	f.recordedTotal = usage.TotalTokens
	f.recordedOp = operation
	return nil
}

type fakeGenerator struct {
	result     ai.GenerateResult
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, _ domain.AIProviderConfig, _, userPrompt string) (ai.GenerateResult, error) {
	f.lastPrompt = userPrompt
	return f.result, f.err
}

type fakeTaskQueue struct {
	enqueued []string
}

func (f *fakeTaskQueue) Enqueue(_ context.Context, taskType string, _ any, _ queue.RetryPolicy) error {
	f.enqueued = append(f.enqueued, taskType)
	return nil
}

type engineFixture struct {
	content *fakeContentStore
	posts   *fakePostStore
	teams   *fakeTeamStore
	guard   *fakeGuard
	client  *fakeGenerator
	tasks   *fakeTaskQueue
	engine  *Engine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		content: &fakeContentStore{queuedOK: true, startOK: true},
		posts:   &fakePostStore{},
		teams: &fakeTeamStore{team: domain.Team{
			ID: 1,
			AIProvider: domain.AIProviderConfig{
				APIKey: "sk-test",
				Model:  "gpt-4o-mini",
			},
		}},
		guard: &fakeGuard{},
		client: &fakeGenerator{result: ai.GenerateResult{
			Text:  "Generated headline\n\nGenerated body.",
			Usage: domain.TokenUsage{TotalTokens: 321},
			Model: "gpt-4o-mini",
		}},
		tasks: &fakeTaskQueue{},
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	f.engine = NewEngine(
		f.content, f.posts, f.teams, f.guard, f.client, f.tasks,
		ContextLimits{MaxSourceWords: 800, MaxContextWords: 4000},
		logger,
	)
	return f
}

func TestRequestPieceGeneration_Enqueues(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, TeamID: 1, Status: domain.GenerationIdle}

	err := f.engine.RequestPieceGeneration(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, f.content.markedQueued)
	assert.Equal(t, []string{domain.TaskGeneratePiece}, f.tasks.enqueued)
}

func TestRequestPieceGeneration_RejectsInFlight(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, Status: domain.GenerationProcessing}

	err := f.engine.RequestPieceGeneration(context.Background(), 5, nil)
	require.Error(t, err)
	assert.Empty(t, f.content.markedQueued)
	assert.Empty(t, f.tasks.enqueued)
}

func TestRequestDerivativeGeneration_RejectsInFlight(t *testing.T) {
	f := newEngineFixture()
	f.content.derivative = domain.ContentDerivative{ID: 8, Status: domain.GenerationProcessing}

	err := f.engine.RequestDerivativeGeneration(context.Background(), 8, nil)
	require.Error(t, err)
	assert.Empty(t, f.tasks.enqueued)
}

func TestRequestDerivativeGeneration_LostRaceDropped(t *testing.T) {
	f := newEngineFixture()
	f.content.derivative = domain.ContentDerivative{ID: 8, Status: domain.GenerationFailed}
	f.content.queuedOK = false

	err := f.engine.RequestDerivativeGeneration(context.Background(), 8, nil)
	require.Error(t, err)
	assert.Empty(t, f.tasks.enqueued)
}

func TestGeneratePiece_Success(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, TeamID: 1, Status: domain.GenerationQueued}
	f.content.background = []domain.BackgroundSource{
		domain.ManualText{Text: "background material"},
	}

	err := f.engine.GeneratePiece(context.Background(), 5, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []int64{5}, f.content.started)
	assert.True(t, f.content.completedCalled)
	assert.Equal(t, "Generated headline", f.content.completedTitle)
	assert.Equal(t, "Generated headline\n\nGenerated body.", f.content.completedText)
	assert.Contains(t, f.client.lastPrompt, "background material")

	assert.True(t, f.guard.recordedCalled)
	assert.Equal(t, 321, f.guard.recordedTotal)
	assert.Equal(t, "generate_content_piece", f.guard.recordedOp)
}

func TestGeneratePiece_UserTitleKept(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, TeamID: 1, Title: "My Draft", Status: domain.GenerationQueued}

	err := f.engine.GeneratePiece(context.Background(), 5, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "My Draft", f.content.completedTitle)
}

func TestGeneratePiece_GoneIsDropped(t *testing.T) {
	f := newEngineFixture()
	f.content.pieceErr = postgres.ErrNotFound

	err := f.engine.GeneratePiece(context.Background(), 5, nil, false)
	require.NoError(t, err)
	assert.Empty(t, f.content.started)
}

func TestGeneratePiece_NotStartableDropped(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, TeamID: 1, Status: domain.GenerationCompleted}
	f.content.startOK = false

	err := f.engine.GeneratePiece(context.Background(), 5, nil, false)
	require.NoError(t, err)
	assert.False(t, f.content.completedCalled)
	assert.False(t, f.content.failedCalled)
}

func TestGeneratePiece_TokenLimitIsPermanent(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, TeamID: 1, Status: domain.GenerationQueued}
	f.guard.assertErr = &domain.TokenLimitExceededError{TeamID: 1, CurrentUsage: 11_000, Limit: 10_000}

	err := f.engine.GeneratePiece(context.Background(), 5, nil, false)
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
	assert.True(t, f.content.failedCalled)
	assert.Contains(t, f.content.failedMessage, "token limit")
}

func TestGeneratePiece_ProviderMissingIsPermanent(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, TeamID: 1, Status: domain.GenerationQueued}
	f.teams.team.AIProvider = domain.AIProviderConfig{}

	err := f.engine.GeneratePiece(context.Background(), 5, nil, false)
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
	assert.Contains(t, f.content.failedMessage, "not configured")
}

func TestGeneratePiece_RetryableKeepsStateUntilLastAttempt(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, TeamID: 1, Status: domain.GenerationQueued}
	f.client.err = errors.New("connection reset")

	err := f.engine.GeneratePiece(context.Background(), 5, nil, false)
	require.Error(t, err)
	assert.False(t, queue.IsPermanent(err))
	assert.False(t, f.content.failedCalled)

	err = f.engine.GeneratePiece(context.Background(), 5, nil, true)
	require.Error(t, err)
	assert.True(t, f.content.failedCalled)
	assert.Equal(t, msgGenericFailure, f.content.failedMessage)
}

func TestGeneratePiece_RateLimitMessageOnLastAttempt(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{ID: 5, TeamID: 1, Status: domain.GenerationQueued}
	f.client.err = &ai.APIError{StatusCode: 429, Message: "rate limited"}

	err := f.engine.GeneratePiece(context.Background(), 5, nil, true)
	require.Error(t, err)
	assert.Equal(t, msgRateLimited, f.content.failedMessage)
}

func TestGenerateDerivative_FallsBackToPieceTemplate(t *testing.T) {
	f := newEngineFixture()
	f.content.piece = domain.ContentPiece{
		ID:             5,
		TeamID:         1,
		Status:         domain.GenerationCompleted,
		PromptTemplate: "Piece template for {{channel}}: {{context}}",
		Briefing:       "the briefing",
	}
	f.content.derivative = domain.ContentDerivative{
		ID:             8,
		ContentPieceID: 5,
		Channel:        "linkedin",
		Status:         domain.GenerationQueued,
	}

	err := f.engine.GenerateDerivative(context.Background(), 8, nil, false)
	require.NoError(t, err)

	assert.Contains(t, f.client.lastPrompt, "Piece template for linkedin")
	assert.True(t, f.content.completedCalled)
	assert.Equal(t, "Generated headline\n\nGenerated body.", f.content.completedText)
}
