package monitor

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"contentradar/internal/domain"
	"contentradar/internal/queue"
)

type SourceStore interface {
	Get(ctx context.Context, id int64) (domain.Source, error)
	ListDue(ctx context.Context, now time.Time) ([]domain.Source, error)
	RecordCheckSuccess(ctx context.Context, id int64, checkedAt, nextCheckAt time.Time) error
	RecordCheckFailure(ctx context.Context, id int64, failedAt, nextCheckAt time.Time, runErr string) error
}

type PostStore interface {
	InsertIfAbsent(ctx context.Context, sourceID int64, uri, title string, foundAt time.Time) (int64, bool, error)
}

type TeamStore interface {
	Get(ctx context.Context, id int64) (domain.Team, error)
}

type WebhookStore interface {
	ListActiveForTeam(ctx context.Context, teamID int64) ([]domain.Webhook, error)
}

type Parser interface {
	Parse(ctx context.Context, source domain.Source) ([]domain.FeedItem, error)
	ScrapeTitle(ctx context.Context, url string) string
}

type TaskQueue interface {
	Enqueue(ctx context.Context, taskType string, payload any, policy queue.RetryPolicy) error
}
