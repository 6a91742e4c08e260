package monitor

import (
	"context"
	"log/slog"
	"time"

	"contentradar/internal/domain"
	"contentradar/internal/queue"
)

// Scheduler polls for due sources on a fixed cadence and enqueues one
// check task per source. It never parses anything itself.
type Scheduler struct {
	sources SourceStore
	tasks   TaskQueue
	tick    time.Duration
	logger  *slog.Logger
}

func NewScheduler(sources SourceStore, tasks TaskQueue, tick time.Duration, logger *slog.Logger) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		sources: sources,
		tasks:   tasks,
		tick:    tick,
		logger:  logger.With("component", "scheduler"),
	}
}

// Start runs the dispatch loop, blocking until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "tick", s.tick)

	s.dispatchDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := time.Now().UTC()

	sources, err := s.sources.ListDue(ctx, now)
	if err != nil {
		s.logger.Error("list due sources", "error", err)
		return
	}
	if len(sources) == 0 {
		return
	}

	enqueued := 0
	for _, source := range sources {
		task := domain.CheckSourceTask{SourceID: source.ID}
		if err := s.tasks.Enqueue(ctx, domain.TaskCheckSource, task, queue.MonitorRetry); err != nil {
			s.logger.Error("enqueue check", "source_id", source.ID, "error", err)
			continue
		}
		enqueued++
	}

	s.logger.Info("dispatched due sources", "due", len(sources), "enqueued", enqueued)
}
