package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/adapter/handler"
	"github.com/johnquangdev/meeting-sync/internal/adapter/repository"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/transcription"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/queue"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-sync/internal/usecase/analysis"
	"github.com/johnquangdev/meeting-sync/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-sync/internal/usecase/notify"
	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/metrics"
	"github.com/johnquangdev/meeting-sync/pkg/tracing"
)

// ErrMemoryQueueInProduction rejects a production start without Redis
var ErrMemoryQueueInProduction = errors.New("analysis queue requires REDIS_HOST in production")

// App is the wired service shared by the API server and the CLI
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Ingest   ingest.Service
	Analysis analysis.Service
	Registry *prometheus.Registry
}

// New connects the stores and builds the pipeline
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.Redis.Host == "" && cfg.IsProduction() {
		return nil, ErrMemoryQueueInProduction
	}

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: db}

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	// Analysis queue: Redis when configured, a bounded in-process queue
	// otherwise. Nothing in this process consumes that queue, so production
	// refuses it.
	var publisher queue.Publisher
	if cfg.Redis.Host != "" {
		client, err := queue.NewRedisClient(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		publisher = queue.NewRedisQueue(client, cfg.Redis.QueueKey)
	} else {
		publisher = queue.NewBoundedMemoryQueue(cfg.Redis.MemoryQueueCapacity)
		logger.Warn("REDIS_HOST not set, analysis messages stay in process memory",
			zap.Int("capacity", cfg.Redis.MemoryQueueCapacity),
		)
	}

	var archive ingest.RawArchive
	if cfg.Storage.Enabled {
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			a.Close()
			return nil, err
		}
		archive = minioClient
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	meetings := repository.NewMeetingRepository(db)
	links := repository.NewScheduledLinkRepository(db)
	deals := repository.NewDealRepository(db)
	jobs := repository.NewAnalysisJobRepository(db)

	a.Analysis = analysis.NewService(meetings, jobs, publisher, logger)

	var fallback notify.AnalysisTrigger = a.Analysis
	if cfg.Notify.FallbackURL != "" {
		fallback = notify.NewHTTPTrigger(cfg.Notify.FallbackURL, cfg.Notify.WebhookSecret)
	}

	a.Ingest = ingest.NewService(ingest.Deps{
		Source:     ingest.NewUpstreamSource(transcription.NewClient(&cfg.Upstream)),
		Resolver:   ingest.NewResolver(meetings, links, deals, ingest.NewMostRecentDealPicker(deals)),
		Replacer:   ingest.NewReplacer(repository.NewArtifactRepository(db), repository.NewSummaryRepository(db), cfg.Pipeline.BatchSize, cfg.Pipeline.PlaceholderSummaries),
		Dispatcher: ingest.NewDispatcher(jobs, publisher),
		Notifier:   notify.NewNotifier(&cfg.Notify, fallback),
		Deals:      deals,
		Archive:    archive,
		Metrics:    metrics.New(a.Registry),
		Tracer:     tracing.NewTracer(),
		Logger:     logger,
		RunTimeout: cfg.Pipeline.RunTimeout,
	})

	return a, nil
}

// Router builds the HTTP routes over the wired services
func (a *App) Router() *handler.Router {
	return handler.NewRouter(
		a.Config,
		handler.NewSyncHandler(a.Ingest, a.Logger),
		handler.NewTranscriptionWebhookHandler(a.Ingest, a.Config.Webhook.Secret, a.Logger),
		handler.NewAnalysisHandler(a.Analysis, a.Config.Notify.WebhookSecret, a.Logger),
		a.MetricsHandler(),
	)
}

// MetricsHandler serves the app registry
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

// Migrate applies or rolls back the embedded migrations
func (a *App) Migrate(direction migrate.MigrationDirection) (int, error) {
	n, err := database.Migrate(a.DB, direction)
	if err != nil {
		return n, fmt.Errorf("migrate: %w", err)
	}
	return n, nil
}

// Close releases the store connections
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := database.CloseDB(a.DB); err != nil {
			a.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
