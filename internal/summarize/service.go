// Package summarize fills AI-assigned summary, relevancy score and
// internal title on discovered posts.
package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"contentradar/internal/ai"
	"contentradar/internal/domain"
	"contentradar/internal/queue"
	"contentradar/internal/storage/postgres"
)

// maxPageWords caps how much extracted article text is sent to the model.
const maxPageWords = 2000

type PostStore interface {
	Get(ctx context.Context, id int64) (domain.Post, error)
	UpdateSummary(ctx context.Context, id int64, summary domain.PostSummary) error
}

type SourceStore interface {
	Get(ctx context.Context, id int64) (domain.Source, error)
}

type TeamStore interface {
	Get(ctx context.Context, id int64) (domain.Team, error)
}

type Guard interface {
	Assert(ctx context.Context, teamID int64, tokensToAdd int64, userID *int64, operation string) error
	Record(ctx context.Context, teamID int64, userID *int64, usage domain.TokenUsage, model, operation string) error
}

type Summarizer interface {
	Summarize(ctx context.Context, provider domain.AIProviderConfig, uri, pageText string) (ai.SummarizeResult, error)
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Service struct {
	posts   PostStore
	sources SourceStore
	teams   TeamStore
	guard   Guard
	client  Summarizer
	fetcher PageFetcher
	logger  *slog.Logger
}

func NewService(
	posts PostStore,
	sources SourceStore,
	teams TeamStore,
	guard Guard,
	client Summarizer,
	fetcher PageFetcher,
	logger *slog.Logger,
) *Service {
	return &Service{
		posts:   posts,
		sources: sources,
		teams:   teams,
		guard:   guard,
		client:  client,
		fetcher: fetcher,
		logger:  logger.With("component", "summarize"),
	}
}

// SummarizePost summarizes one post. Quota and provider-config failures
// are permanent; transport failures are returned plain for the queue to
// retry.
func (s *Service) SummarizePost(ctx context.Context, postID int64) error {
	post, err := s.posts.Get(ctx, postID)
	if errors.Is(err, postgres.ErrNotFound) {
		s.logger.Debug("post gone, skipping", "post_id", postID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}

	source, err := s.sources.Get(ctx, post.SourceID)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	team, err := s.teams.Get(ctx, source.TeamID)
	if err != nil {
		return fmt.Errorf("load team: %w", err)
	}

	if !team.AIProvider.Configured() {
		return queue.Permanent(domain.ErrProviderNotConfigured)
	}
	if err := s.guard.Assert(ctx, team.ID, 0, nil, "summarize_post"); err != nil {
		if domain.IsTokenLimitExceeded(err) {
			return queue.Permanent(err)
		}
		return err
	}

	pageText := s.extractPageText(ctx, post.URI)

	result, err := s.client.Summarize(ctx, team.AIProvider, post.URI, pageText)
	if err != nil {
		if errors.Is(err, domain.ErrProviderNotConfigured) {
			return queue.Permanent(err)
		}
		return fmt.Errorf("summarize post %d: %w", postID, err)
	}

	err = s.posts.UpdateSummary(ctx, postID, domain.PostSummary{
		Summary:        result.Summary,
		RelevancyScore: result.RelevancyScore,
		Title:          result.Title,
	})
	if err != nil {
		return err
	}

	if err := s.guard.Record(ctx, team.ID, nil, result.Usage, result.Model, "summarize_post"); err != nil {
		s.logger.Error("record usage", "team_id", team.ID, "error", err)
	}

	s.logger.Info("post summarized",
		"post_id", postID,
		"relevancy_score", result.RelevancyScore,
		"total_tokens", result.Usage.TotalTokens,
	)
	return nil
}

// extractPageText pulls readable body text from the post's page, capped
// at maxPageWords. Best effort: an unreachable page still gets a
// URL-only summarization attempt.
func (s *Service) extractPageText(ctx context.Context, url string) string {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Debug("page fetch failed", "url", url, "error", err)
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	words := strings.Fields(text)
	if len(words) > maxPageWords {
		words = words[:maxPageWords]
	}
	return strings.Join(words, " ")
}
