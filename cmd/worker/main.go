package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"contentradar/internal/ai"
	"contentradar/internal/config"
	"contentradar/internal/domain"
	"contentradar/internal/feed"
	"contentradar/internal/generate"
	"contentradar/internal/metrics"
	"contentradar/internal/monitor"
	"contentradar/internal/queue"
	"contentradar/internal/quota"
	"contentradar/internal/storage/postgres"
	"contentradar/internal/summarize"
	"contentradar/internal/webhook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	rabbitMQ, err := queue.NewRabbitMQ(queue.Config{
		URL:      cfg.RabbitMQ.URL,
		Exchange: cfg.RabbitMQ.Exchange,
		Prefetch: cfg.RabbitMQ.Prefetch,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	taskTypes := []string{
		domain.TaskCheckSource,
		domain.TaskSummarizePost,
		domain.TaskGeneratePiece,
		domain.TaskGenerateDerivative,
		domain.TaskDeliverWebhook,
	}
	for _, taskType := range taskTypes {
		if err := rabbitMQ.DeclareTaskQueue(taskType); err != nil {
			logger.Error("failed to declare task queue", "type", taskType, "error", err)
			os.Exit(1)
		}
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// Stores
	sourceStore := postgres.NewSourceStore(db)
	postStore := postgres.NewPostStore(db)
	teamStore := postgres.NewTeamStore(db)
	webhookStore := postgres.NewWebhookStore(db)
	contentStore := postgres.NewContentStore(db)
	usageStore := postgres.NewTokenUsageStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Services
	fetcher := feed.NewFetcher(feed.FetcherConfig{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
	})
	dispatcher := feed.NewDispatcher(fetcher, cfg.Fetch.MaxPostsPerFeed)
	guard := quota.NewGuard(teamStore, usageStore, txManager, logger)

	monitorService := monitor.NewService(
		sourceStore, postStore, teamStore, webhookStore, dispatcher, rabbitMQ, logger,
	)
	summarizeService := summarize.NewService(
		postStore, sourceStore, teamStore, guard,
		ai.NewClient(ai.Config{Timeout: cfg.AI.SummarizeTimeout}),
		fetcher, logger,
	)
	generateEngine := generate.NewEngine(
		contentStore, postStore, teamStore, guard,
		ai.NewClient(ai.Config{Timeout: cfg.AI.GenerateTimeout}),
		rabbitMQ,
		generate.ContextLimits{
			MaxSourceWords:  cfg.Generate.MaxSourceWords,
			MaxContextWords: cfg.Generate.MaxContextWords,
		},
		logger,
	)
	deliverer := webhook.NewDeliverer(webhookStore, logger)

	handlers := map[string]queue.Handler{
		domain.TaskCheckSource: func(ctx context.Context, task queue.Task) error {
			var t domain.CheckSourceTask
			if err := task.Decode(&t); err != nil {
				return queue.Permanent(err)
			}
			err := monitorService.CheckSource(ctx, t.SourceID)
			if err != nil && (queue.IsPermanent(err) || task.LastAttempt()) {
				monitorService.RecordFailure(ctx, t.SourceID, err)
			}
			return err
		},
		domain.TaskSummarizePost: func(ctx context.Context, task queue.Task) error {
			var t domain.SummarizePostTask
			if err := task.Decode(&t); err != nil {
				return queue.Permanent(err)
			}
			return summarizeService.SummarizePost(ctx, t.PostID)
		},
		domain.TaskGeneratePiece: func(ctx context.Context, task queue.Task) error {
			var t domain.GeneratePieceTask
			if err := task.Decode(&t); err != nil {
				return queue.Permanent(err)
			}
			return generateEngine.GeneratePiece(ctx, t.ContentPieceID, t.UserID, task.LastAttempt())
		},
		domain.TaskGenerateDerivative: func(ctx context.Context, task queue.Task) error {
			var t domain.GenerateDerivativeTask
			if err := task.Decode(&t); err != nil {
				return queue.Permanent(err)
			}
			return generateEngine.GenerateDerivative(ctx, t.DerivativeID, t.UserID, task.LastAttempt())
		},
		domain.TaskDeliverWebhook: func(ctx context.Context, task queue.Task) error {
			var t domain.DeliverWebhookTask
			if err := task.Decode(&t); err != nil {
				return queue.Permanent(err)
			}
			return deliverer.Deliver(ctx, t)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler()}
	go func() {
		logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = metricsServer.Shutdown(context.Background())
	}()

	logger.Info("starting worker", "queues", taskTypes)

	var wg sync.WaitGroup
	for taskType, handler := range handlers {
		wg.Add(1)
		go func(taskType string, handler queue.Handler) {
			defer wg.Done()
			if err := rabbitMQ.Consume(ctx, taskType, handler); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("consumer stopped", "type", taskType, "error", err)
				cancel()
			}
		}(taskType, handler)
	}
	wg.Wait()

	logger.Info("worker stopped")
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
