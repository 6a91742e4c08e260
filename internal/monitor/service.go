package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contentradar/internal/domain"
	"contentradar/internal/keyword"
	"contentradar/internal/metrics"
	"contentradar/internal/queue"
	"contentradar/internal/storage/postgres"
)

// Service runs one monitoring check per invocation: parse the source,
// apply the team's keyword rules, ingest new posts, reschedule, and fan
// out notification and summarization tasks.
type Service struct {
	sources  SourceStore
	posts    PostStore
	teams    TeamStore
	webhooks WebhookStore
	parser   Parser
	tasks    TaskQueue
	logger   *slog.Logger
}

func NewService(
	sources SourceStore,
	posts PostStore,
	teams TeamStore,
	webhooks WebhookStore,
	parser Parser,
	tasks TaskQueue,
	logger *slog.Logger,
) *Service {
	return &Service{
		sources:  sources,
		posts:    posts,
		teams:    teams,
		webhooks: webhooks,
		parser:   parser,
		tasks:    tasks,
		logger:   logger.With("component", "monitor"),
	}
}

// CheckSource performs one monitoring run. A returned error means the
// attempt failed and the queue should retry; sources that vanished or were
// deactivated between selection and execution are skipped silently.
func (s *Service) CheckSource(ctx context.Context, sourceID int64) error {
	startTime := time.Now()

	source, err := s.sources.Get(ctx, sourceID)
	if errors.Is(err, postgres.ErrNotFound) {
		s.logger.Debug("source gone, skipping", "source_id", sourceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	if !source.IsActive || source.DeletedAt != nil || source.Type == domain.SourceTypeWebhook {
		s.logger.Debug("source not checkable, skipping", "source_id", sourceID)
		return nil
	}

	s.logger.Info("checking source",
		"source_id", source.ID,
		"name", source.Name,
		"type", source.Type,
	)

	items, err := s.parser.Parse(ctx, source)
	if err != nil {
		return fmt.Errorf("parse source %d: %w", source.ID, err)
	}

	stats := domain.CheckStats{SourceID: source.ID, Parsed: len(items)}

	if !source.BypassKeywordFilter {
		items, err = s.filterItems(ctx, source, items)
		if err != nil {
			return err
		}
	}
	stats.Filtered = len(items)

	now := time.Now().UTC()
	newPosts, err := s.ingest(ctx, source, items, now)
	if err != nil {
		return err
	}
	stats.NewPosts = len(newPosts)

	nextCheckAt := now.Add(source.Interval.Duration())
	if err := s.sources.RecordCheckSuccess(ctx, source.ID, now, nextCheckAt); err != nil {
		return fmt.Errorf("record check success: %w", err)
	}

	if source.ShouldNotify && len(newPosts) > 0 {
		s.notify(ctx, source, newPosts)
	}

	if source.AutoSummarize {
		for _, post := range newPosts {
			task := domain.SummarizePostTask{PostID: post.ID}
			if err := s.tasks.Enqueue(ctx, domain.TaskSummarizePost, task, queue.SummarizeRetry); err != nil {
				s.logger.Error("enqueue summarize", "post_id", post.ID, "error", err)
			}
		}
	}

	stats.Duration = time.Since(startTime)
	s.logger.Info("check completed",
		"source_id", source.ID,
		"parsed", stats.Parsed,
		"filtered", stats.Filtered,
		"new_posts", stats.NewPosts,
		"next_check_at", nextCheckAt,
		"duration", stats.Duration,
	)
	return nil
}

// RecordFailure marks a terminally failed check on the source's health
// counters. Called by the worker once the queue's retry budget for the
// task is exhausted. The next check is still scheduled so the source
// recovers on its own when the remote side does.
func (s *Service) RecordFailure(ctx context.Context, sourceID int64, checkErr error) {
	source, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		s.logger.Error("load source for failure record", "source_id", sourceID, "error", err)
		return
	}

	now := time.Now().UTC()
	nextCheckAt := now.Add(source.Interval.Duration())
	if err := s.sources.RecordCheckFailure(ctx, sourceID, now, nextCheckAt, checkErr.Error()); err != nil {
		s.logger.Error("record check failure", "source_id", sourceID, "error", err)
		return
	}

	s.logger.Warn("source check failed terminally",
		"source_id", sourceID,
		"consecutive_failures", source.ConsecutiveFailures+1,
		"error", checkErr,
	)
}

func (s *Service) filterItems(ctx context.Context, source domain.Source, items []domain.FeedItem) ([]domain.FeedItem, error) {
	team, err := s.teams.Get(ctx, source.TeamID)
	if err != nil {
		return nil, fmt.Errorf("load team %d: %w", source.TeamID, err)
	}

	positive := team.PositiveKeywordList()
	negative := team.NegativeKeywordList()
	if !keyword.NeedsFiltering(positive, negative) {
		return items, nil
	}

	filtered := make([]domain.FeedItem, 0, len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			// Sitemap entries carry no title; scrape it so keyword
			// rules have something to match on.
			title = s.parser.ScrapeTitle(ctx, item.URI)
			item.Title = title
		}
		if keyword.Match(title, positive, negative) {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (s *Service) ingest(ctx context.Context, source domain.Source, items []domain.FeedItem, foundAt time.Time) ([]domain.NewPost, error) {
	var newPosts []domain.NewPost
	for _, item := range items {
		id, created, err := s.posts.InsertIfAbsent(ctx, source.ID, item.URI, item.Title, foundAt)
		if err != nil {
			return nil, fmt.Errorf("ingest post %s: %w", item.URI, err)
		}
		if !created {
			continue
		}
		newPosts = append(newPosts, domain.NewPost{ID: id, Title: item.Title, URL: item.URI})
		metrics.PostsDiscovered.Inc()
	}
	return newPosts, nil
}

func (s *Service) notify(ctx context.Context, source domain.Source, newPosts []domain.NewPost) {
	hooks, err := s.webhooks.ListActiveForTeam(ctx, source.TeamID)
	if err != nil {
		s.logger.Error("list webhooks", "team_id", source.TeamID, "error", err)
		return
	}

	for _, hook := range hooks {
		task := domain.DeliverWebhookTask{
			WebhookID:  hook.ID,
			SourceID:   source.ID,
			SourceName: source.Name,
			NewPosts:   newPosts,
		}
		if err := s.tasks.Enqueue(ctx, domain.TaskDeliverWebhook, task, queue.WebhookRetry); err != nil {
			s.logger.Error("enqueue webhook delivery", "webhook_id", hook.ID, "error", err)
		}
	}
}
