// Package generate runs the content-piece and derivative generation
// workers.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"contentradar/internal/ai"
	"contentradar/internal/domain"
	"contentradar/internal/queue"
	"contentradar/internal/storage/postgres"
)

// User-facing failure messages persisted on the owning entity.
const (
	msgTokenLimit     = "Monthly token limit reached. Generation will be possible again next month, or raise the limit in team settings."
	msgNoProvider     = "AI provider is not configured. Add API credentials in team settings."
	msgTimeout        = "The AI provider took too long to respond. Please try again."
	msgRateLimited    = "The AI provider rate-limited the request. Please try again in a few minutes."
	msgGenericFailure = "Content generation failed. Please try again."
)

const defaultPromptTemplate = `You are a content writer. Using the background material below, write a {{channel}} piece in {{language}}.

{{context}}`

type ContentStore interface {
	GetPiece(ctx context.Context, id int64) (domain.ContentPiece, error)
	GetDerivative(ctx context.Context, id int64) (domain.ContentDerivative, error)
	ListBackgroundSources(ctx context.Context, pieceID int64) ([]domain.BackgroundSource, error)
	TryMarkPieceQueued(ctx context.Context, id int64) (bool, error)
	TryStartPiece(ctx context.Context, id int64) (bool, error)
	SetPieceCompleted(ctx context.Context, id int64, title, text string) error
	SetPieceFailed(ctx context.Context, id int64, message string) error
	TryMarkDerivativeQueued(ctx context.Context, id int64) (bool, error)
	TryStartDerivative(ctx context.Context, id int64) (bool, error)
	SetDerivativeCompleted(ctx context.Context, id int64, text string) error
	SetDerivativeFailed(ctx context.Context, id int64, message string) error
}

type PostStore interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Post, error)
}

type TeamStore interface {
	Get(ctx context.Context, id int64) (domain.Team, error)
}

type Guard interface {
	Assert(ctx context.Context, teamID int64, tokensToAdd int64, userID *int64, operation string) error
	Record(ctx context.Context, teamID int64, userID *int64, usage domain.TokenUsage, model, operation string) error
}

type Generator interface {
	Generate(ctx context.Context, provider domain.AIProviderConfig, systemPrompt, userPrompt string) (ai.GenerateResult, error)
}

type TaskQueue interface {
	Enqueue(ctx context.Context, taskType string, payload any, policy queue.RetryPolicy) error
}

// Engine executes generation for content pieces and their per-channel
// derivatives. Both follow the same state machine:
// queued -> processing -> completed | failed.
type Engine struct {
	content ContentStore
	posts   PostStore
	teams   TeamStore
	guard   Guard
	client  Generator
	tasks   TaskQueue
	limits  ContextLimits
	logger  *slog.Logger
}

func NewEngine(
	content ContentStore,
	posts PostStore,
	teams TeamStore,
	guard Guard,
	client Generator,
	tasks TaskQueue,
	limits ContextLimits,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		content: content,
		posts:   posts,
		teams:   teams,
		guard:   guard,
		client:  client,
		tasks:   tasks,
		limits:  limits,
		logger:  logger.With("component", "generate"),
	}
}

// RequestPieceGeneration enqueues generation for a piece unless one is
// already in flight. The conditional queued-transition is the in-flight
// guard: a lost race updates zero rows and the request is dropped.
func (e *Engine) RequestPieceGeneration(ctx context.Context, pieceID int64, userID *int64) error {
	piece, err := e.content.GetPiece(ctx, pieceID)
	if err != nil {
		return err
	}
	if !piece.Status.CanGenerate() {
		return fmt.Errorf("content piece %d: generation already in flight (status %s)", pieceID, piece.Status)
	}

	queued, err := e.content.TryMarkPieceQueued(ctx, pieceID)
	if err != nil {
		return err
	}
	if !queued {
		return fmt.Errorf("content piece %d: generation already in flight", pieceID)
	}

	task := domain.GeneratePieceTask{ContentPieceID: pieceID, UserID: userID}
	return e.tasks.Enqueue(ctx, domain.TaskGeneratePiece, task, queue.GenerateRetry)
}

// RequestDerivativeGeneration mirrors RequestPieceGeneration for one
// channel derivative.
func (e *Engine) RequestDerivativeGeneration(ctx context.Context, derivativeID int64, userID *int64) error {
	derivative, err := e.content.GetDerivative(ctx, derivativeID)
	if err != nil {
		return err
	}
	if !derivative.Status.CanGenerate() {
		return fmt.Errorf("derivative %d: generation already in flight (status %s)", derivativeID, derivative.Status)
	}

	queued, err := e.content.TryMarkDerivativeQueued(ctx, derivativeID)
	if err != nil {
		return err
	}
	if !queued {
		return fmt.Errorf("derivative %d: generation already in flight", derivativeID)
	}

	task := domain.GenerateDerivativeTask{DerivativeID: derivativeID, UserID: userID}
	return e.tasks.Enqueue(ctx, domain.TaskGenerateDerivative, task, queue.GenerateRetry)
}

// GeneratePiece runs generation for one content piece. lastAttempt marks
// the queue's final retry: only then is a retryable failure persisted as
// FAILED on the piece.
func (e *Engine) GeneratePiece(ctx context.Context, pieceID int64, userID *int64, lastAttempt bool) error {
	piece, err := e.content.GetPiece(ctx, pieceID)
	if errors.Is(err, postgres.ErrNotFound) {
		e.logger.Debug("content piece gone, skipping", "piece_id", pieceID)
		return nil
	}
	if err != nil {
		return err
	}

	started, err := e.content.TryStartPiece(ctx, pieceID)
	if err != nil {
		return err
	}
	if !started {
		e.logger.Debug("content piece not startable, dropping task", "piece_id", pieceID)
		return nil
	}

	result, genErr := e.generate(ctx, generationInput{
		teamID:   piece.TeamID,
		userID:   userID,
		pieceID:  pieceID,
		piece:    piece,
		template: piece.PromptTemplate,
		channel:  "blog post",
		language: piece.Language,
		opLabel:  "generate_content_piece",
	})
	if genErr != nil {
		return e.failPiece(ctx, pieceID, genErr, lastAttempt)
	}

	title := piece.Title
	if title == "" {
		title = firstLine(result.Text)
	}
	if err := e.content.SetPieceCompleted(ctx, pieceID, title, result.Text); err != nil {
		return err
	}

	e.logger.Info("content piece generated", "piece_id", pieceID, "total_tokens", result.Usage.TotalTokens)
	return nil
}

// GenerateDerivative runs generation for one channel derivative.
func (e *Engine) GenerateDerivative(ctx context.Context, derivativeID int64, userID *int64, lastAttempt bool) error {
	derivative, err := e.content.GetDerivative(ctx, derivativeID)
	if errors.Is(err, postgres.ErrNotFound) {
		e.logger.Debug("derivative gone, skipping", "derivative_id", derivativeID)
		return nil
	}
	if err != nil {
		return err
	}

	piece, err := e.content.GetPiece(ctx, derivative.ContentPieceID)
	if err != nil {
		return err
	}

	started, err := e.content.TryStartDerivative(ctx, derivativeID)
	if err != nil {
		return err
	}
	if !started {
		e.logger.Debug("derivative not startable, dropping task", "derivative_id", derivativeID)
		return nil
	}

	template := derivative.PromptTemplate
	if template == "" {
		template = piece.PromptTemplate
	}

	result, genErr := e.generate(ctx, generationInput{
		teamID:   piece.TeamID,
		userID:   userID,
		pieceID:  piece.ID,
		piece:    piece,
		template: template,
		channel:  derivative.Channel,
		language: piece.Language,
		opLabel:  "generate_derivative",
	})
	if genErr != nil {
		return e.failDerivative(ctx, derivativeID, genErr, lastAttempt)
	}

	if err := e.content.SetDerivativeCompleted(ctx, derivativeID, result.Text); err != nil {
		return err
	}

	e.logger.Info("derivative generated",
		"derivative_id", derivativeID,
		"channel", derivative.Channel,
		"total_tokens", result.Usage.TotalTokens,
	)
	return nil
}

type generationInput struct {
	teamID   int64
	userID   *int64
	pieceID  int64
	piece    domain.ContentPiece
	template string
	channel  string
	language string
	opLabel  string
}

func (e *Engine) generate(ctx context.Context, in generationInput) (ai.GenerateResult, error) {
	team, err := e.teams.Get(ctx, in.teamID)
	if err != nil {
		return ai.GenerateResult{}, err
	}
	if !team.AIProvider.Configured() {
		return ai.GenerateResult{}, domain.ErrProviderNotConfigured
	}

	if err := e.guard.Assert(ctx, team.ID, 0, in.userID, in.opLabel); err != nil {
		return ai.GenerateResult{}, err
	}

	contextText, err := e.buildContext(ctx, in.pieceID, in.piece)
	if err != nil {
		return ai.GenerateResult{}, err
	}

	template := in.template
	if template == "" {
		template = defaultPromptTemplate
	}
	language := in.language
	if language == "" {
		language = team.AIProvider.Language
	}
	if language == "" {
		language = "English"
	}
	prompt := RenderTemplate(template, contextText, in.channel, language)

	result, err := e.client.Generate(ctx, team.AIProvider, "You are a professional content writer.", prompt)
	if err != nil {
		return ai.GenerateResult{}, err
	}

	if err := e.guard.Record(ctx, team.ID, in.userID, result.Usage, result.Model, in.opLabel); err != nil {
		e.logger.Error("record usage", "team_id", team.ID, "error", err)
	}
	return result, nil
}

func (e *Engine) buildContext(ctx context.Context, pieceID int64, piece domain.ContentPiece) (string, error) {
	sources, err := e.content.ListBackgroundSources(ctx, pieceID)
	if err != nil {
		return "", err
	}

	var postIDs []int64
	for _, src := range sources {
		if ref, ok := src.(domain.PostRef); ok {
			postIDs = append(postIDs, ref.PostID)
		}
	}

	postsByID := make(map[int64]domain.Post)
	if len(postIDs) > 0 {
		posts, err := e.posts.GetByIDs(ctx, postIDs)
		if err != nil {
			return "", err
		}
		for _, post := range posts {
			postsByID[post.ID] = post
		}
	}

	return BuildContext(piece, sources, postsByID, e.limits), nil
}

// failPiece translates a generation error into piece state. Quota and
// provider errors are terminal immediately; anything else stays retryable
// until the last attempt.
func (e *Engine) failPiece(ctx context.Context, pieceID int64, genErr error, lastAttempt bool) error {
	if terminal, msg := terminalMessage(genErr); terminal {
		if err := e.content.SetPieceFailed(ctx, pieceID, msg); err != nil {
			e.logger.Error("persist piece failure", "piece_id", pieceID, "error", err)
		}
		return queue.Permanent(genErr)
	}
	if lastAttempt {
		if err := e.content.SetPieceFailed(ctx, pieceID, retryableMessage(genErr)); err != nil {
			e.logger.Error("persist piece failure", "piece_id", pieceID, "error", err)
		}
	}
	return genErr
}

func (e *Engine) failDerivative(ctx context.Context, derivativeID int64, genErr error, lastAttempt bool) error {
	if terminal, msg := terminalMessage(genErr); terminal {
		if err := e.content.SetDerivativeFailed(ctx, derivativeID, msg); err != nil {
			e.logger.Error("persist derivative failure", "derivative_id", derivativeID, "error", err)
		}
		return queue.Permanent(genErr)
	}
	if lastAttempt {
		if err := e.content.SetDerivativeFailed(ctx, derivativeID, retryableMessage(genErr)); err != nil {
			e.logger.Error("persist derivative failure", "derivative_id", derivativeID, "error", err)
		}
	}
	return genErr
}

func terminalMessage(err error) (bool, string) {
	switch {
	case domain.IsTokenLimitExceeded(err):
		return true, msgTokenLimit
	case errors.Is(err, domain.ErrProviderNotConfigured):
		return true, msgNoProvider
	default:
		return false, ""
	}
}

func retryableMessage(err error) string {
	switch {
	case ai.IsTimeout(err):
		return msgTimeout
	case ai.IsRateLimited(err):
		return msgRateLimited
	default:
		return msgGenericFailure
	}
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if len(line) > 120 {
		line = line[:120]
	}
	return strings.TrimSpace(line)
}
