// Package server builds the harvester's dependencies from configuration and runs the
// scheduler alongside the optional HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-harvester/internal/api"
	"github.com/JakeFAU/news-harvester/internal/clock/system"
	"github.com/JakeFAU/news-harvester/internal/config"
	"github.com/JakeFAU/news-harvester/internal/crawler"
	"github.com/JakeFAU/news-harvester/internal/dates"
	"github.com/JakeFAU/news-harvester/internal/extract"
	collyfetcher "github.com/JakeFAU/news-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/news-harvester/internal/hash/sha256"
	"github.com/JakeFAU/news-harvester/internal/id/uuid"
	"github.com/JakeFAU/news-harvester/internal/orchestrator"
	"github.com/JakeFAU/news-harvester/internal/policy/ratelimit"
	gcppublisher "github.com/JakeFAU/news-harvester/internal/publisher/pubsub"
	"github.com/JakeFAU/news-harvester/internal/scheduler"
	gcsstorage "github.com/JakeFAU/news-harvester/internal/storage/gcs"
	localstorage "github.com/JakeFAU/news-harvester/internal/storage/local"
	memorystorage "github.com/JakeFAU/news-harvester/internal/storage/memory"
	mongostore "github.com/JakeFAU/news-harvester/internal/storage/mongo"
	pgstore "github.com/JakeFAU/news-harvester/internal/storage/postgres"
)

// articleBackend is what every configured article store offers.
type articleBackend interface {
	crawler.ArticleStore
	crawler.ArticleReader
}

// harvester is the part of the orchestrator the scheduled job needs.
type harvester interface {
	Run(ctx context.Context, pageCount int) (crawler.RunSummary, error)
}

// App contains the application's dependencies.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	store        articleBackend
	orchestrator *orchestrator.Orchestrator
	scheduler    *scheduler.Scheduler
	apiServer    *api.Server

	closers []func(context.Context) error
}

// Build creates the application's dependencies. On failure everything opened so far
// is closed before returning.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (app *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app = &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.closeAll(context.Background())
			app = nil
		}
	}()

	logger.Info("building application dependencies",
		zap.String("topic", cfg.Crawl.Topic),
		zap.Int("pages", cfg.Crawl.Pages),
		zap.String("store", cfg.Store.Backend),
		zap.String("archive", cfg.Archive.Backend),
	)

	if app.store, err = app.setupStore(ctx); err != nil {
		return nil, err
	}
	archive, err := app.setupArchive(ctx)
	if err != nil {
		return nil, err
	}
	publisher, err := app.setupPublisher(ctx)
	if err != nil {
		return nil, err
	}

	datesLoc := dates.LoadLocation(cfg.Dates.Location)
	schedLoc := dates.LoadLocation(cfg.Schedule.Location)
	clock := system.New(datesLoc)

	opts := []orchestrator.Option{
		orchestrator.WithClock(clock),
		orchestrator.WithIDGenerator(uuid.New()),
	}
	if cfg.Crawl.DetailRPS > 0 {
		opts = append(opts, orchestrator.WithLimiter(ratelimit.New(ratelimit.Config{RPS: cfg.Crawl.DetailRPS, Burst: 1})))
		logger.Info("article fetches rate limited", zap.Float64("rps", cfg.Crawl.DetailRPS))
	}
	if archive != nil {
		opts = append(opts, orchestrator.WithArchive(archive, sha256.New()))
	}
	if publisher != nil {
		opts = append(opts, orchestrator.WithPublisher(publisher))
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawl.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})
	app.orchestrator = orchestrator.New(
		orchestrator.Config{
			SearchURL:     cfg.Crawl.SearchURL,
			Topic:         cfg.Crawl.Topic,
			SiteID:        cfg.Crawl.SiteID,
			PageDelay:     cfg.Crawl.PageDelay,
			ArchivePrefix: cfg.Archive.Prefix,
		},
		fetcher,
		extract.New(cfg.Extract),
		dates.NewNormalizer(datesLoc, clock, logger.Named("dates")),
		app.store,
		logger.Named("orchestrator"),
		opts...,
	)

	schedCfg, err := cfg.Schedule.Parsed(schedLoc)
	if err != nil {
		return nil, fmt.Errorf("schedule config: %w", err)
	}
	app.scheduler = scheduler.New(
		schedCfg,
		harvestJob(app.orchestrator, cfg.Crawl.Pages, logger.Named("job")),
		logger.Named("scheduler"),
		scheduler.WithClock(system.New(schedLoc)),
	)

	if cfg.Server.Enabled {
		app.apiServer = api.NewServer(app.store, app.scheduler, app.orchestrator, logger.Named("api"))
	}
	return app, nil
}

// Run registers the triggers, serves the API when enabled, and polls until ctx is
// cancelled. Resources are closed before it returns.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var srv *http.Server
	if a.apiServer != nil {
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
			Handler:           a.apiServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("http server error", zap.Error(err))
				stop()
			}
		}()
	}

	runErr := a.scheduler.Start(ctx)
	if runErr == nil {
		runErr = a.scheduler.Run(ctx)
	}
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown error", zap.Error(err))
		}
	}
	a.Close(shutdownCtx)
	return runErr
}

// Close releases stores, clients, and flushes the logger.
func (a *App) Close(ctx context.Context) {
	a.closeAll(ctx)
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
}

func (a *App) closeAll(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("resource close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) setupStore(ctx context.Context) (articleBackend, error) {
	cfg := a.cfg.Store
	switch cfg.Backend {
	case config.BackendMongo:
		store, err := mongostore.Connect(ctx, mongostore.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Timeout:    time.Duration(cfg.Mongo.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("mongo store init failed: %w", err)
		}
		a.onClose(store.Close)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo index setup failed: %w", err)
		}
		a.logger.Info("using mongo article store",
			zap.String("database", cfg.Mongo.Database),
			zap.String("collection", cfg.Mongo.Collection),
		)
		return store, nil
	case config.BackendPostgres:
		store, err := pgstore.NewArticleStore(ctx, pgstore.Config{
			DSN:             cfg.Postgres.DSN,
			Table:           cfg.Postgres.Table,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store init failed: %w", err)
		}
		a.onClose(func(context.Context) error {
			store.Close()
			return nil
		})
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema setup failed: %w", err)
		}
		a.logger.Info("using postgres article store", zap.String("table", cfg.Postgres.Table))
		return store, nil
	case config.BackendMemory:
		a.logger.Warn("using in-memory article store; articles are lost on exit")
		return memorystorage.NewArticleStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func (a *App) setupArchive(ctx context.Context) (crawler.BlobStore, error) {
	cfg := a.cfg.Archive
	switch cfg.Backend {
	case config.ArchiveLocal:
		blobs, err := localstorage.New(localstorage.Config{BaseDir: cfg.Dir})
		if err != nil {
			return nil, fmt.Errorf("local archive init failed: %w", err)
		}
		a.logger.Info("archiving pages locally", zap.String("dir", cfg.Dir))
		return blobs, nil
	case config.ArchiveGCS:
		blobs, err := gcsstorage.Connect(ctx, gcsstorage.Config{Bucket: cfg.Bucket})
		if err != nil {
			return nil, fmt.Errorf("gcs archive init failed: %w", err)
		}
		a.onClose(func(context.Context) error { return blobs.Close() })
		a.logger.Info("archiving pages to GCS", zap.String("bucket", cfg.Bucket))
		return blobs, nil
	case config.ArchiveNone, "":
		a.logger.Debug("page archive disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

func (a *App) setupPublisher(ctx context.Context) (crawler.Publisher, error) {
	cfg := a.cfg.PubSub
	if !cfg.Enabled {
		a.logger.Debug("article notifications disabled")
		return nil, nil
	}
	pub, err := gcppublisher.Connect(ctx, cfg.ProjectID, cfg.Topic)
	if err != nil {
		return nil, fmt.Errorf("pubsub publisher init failed: %w", err)
	}
	a.onClose(func(context.Context) error { return pub.Close() })
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", cfg.ProjectID),
		zap.String("topic", cfg.Topic),
	)
	return pub, nil
}

// harvestJob adapts a harvest run to a scheduler job. A run that finds another one
// still in progress is skipped rather than reported as a failure.
func harvestJob(h harvester, pages int, logger *zap.Logger) scheduler.Job {
	return func(ctx context.Context) error {
		summary, err := h.Run(ctx, pages)
		if errors.Is(err, crawler.ErrRunInProgress) {
			logger.Warn("harvest skipped; previous run still in progress")
			return nil
		}
		if err != nil {
			return fmt.Errorf("harvest %s: %w", summary.RunID, err)
		}
		return nil
	}
}
