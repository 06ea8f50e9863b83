// Package server wires the atlas service together and owns its lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/api"
	"github.com/JakeFAU/bible-atlas-api/internal/auth"
	"github.com/JakeFAU/bible-atlas-api/internal/bible"
	"github.com/JakeFAU/bible-atlas-api/internal/cache"
	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	"github.com/JakeFAU/bible-atlas-api/internal/config"
	"github.com/JakeFAU/bible-atlas-api/internal/dispatcher"
	"github.com/JakeFAU/bible-atlas-api/internal/fetcher"
	collyfetcher "github.com/JakeFAU/bible-atlas-api/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/bible-atlas-api/internal/fetcher/headless"
	"github.com/JakeFAU/bible-atlas-api/internal/headless/detector"
	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
	"github.com/JakeFAU/bible-atlas-api/internal/id/uuid"
	"github.com/JakeFAU/bible-atlas-api/internal/logging"
	"github.com/JakeFAU/bible-atlas-api/internal/policy/ratelimit"
	"github.com/JakeFAU/bible-atlas-api/internal/progress"
	progresssinks "github.com/JakeFAU/bible-atlas-api/internal/progress/sinks"
	"github.com/JakeFAU/bible-atlas-api/internal/publisher"
	memorypublisher "github.com/JakeFAU/bible-atlas-api/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/bible-atlas-api/internal/publisher/pubsub"
	queueMemory "github.com/JakeFAU/bible-atlas-api/internal/queue/memory"
	"github.com/JakeFAU/bible-atlas-api/internal/scraper"
	"github.com/JakeFAU/bible-atlas-api/internal/service"
	"github.com/JakeFAU/bible-atlas-api/internal/storage"
	gcsstorage "github.com/JakeFAU/bible-atlas-api/internal/storage/gcs"
	localstorage "github.com/JakeFAU/bible-atlas-api/internal/storage/local"
	memoryStorage "github.com/JakeFAU/bible-atlas-api/internal/storage/memory"
	pgstore "github.com/JakeFAU/bible-atlas-api/internal/storage/postgres"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
	"github.com/JakeFAU/bible-atlas-api/internal/tasks"
	"github.com/JakeFAU/bible-atlas-api/internal/worker"
)

const serviceName = "bible-atlas-api"

// App contains the application's dependencies.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	clock  clock.Clock

	store       *pgstore.Store
	redis       *cache.Redis
	gcs         *gstorage.Client
	pubsub      *gcppublisher.Publisher
	headless    *headlessfetcher.Fetcher
	blobs       storage.BlobStore
	broker      *progresssinks.Broker
	progressHub *progress.Hub
	queue       *queueMemory.Queue
	dispatch    *dispatcher.Dispatcher
	scheduler   *tasks.Scheduler
	scraper     *scraper.Scraper
	importer    *scraper.Importer
	places      *service.PlaceService
	apiServer   *api.Server
}

// Build creates the application's dependencies. The caller owns the
// returned App and must Close it.
func Build(ctx context.Context, cfg config.Config) (app *App, err error) {
	logger, err := logging.New(cfg.Logging.Development, serviceName)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	app = &App{cfg: cfg, logger: logger, clock: clock.System{}}
	defer func() {
		if err != nil {
			app.closeInfrastructure(context.Background())
		}
	}()

	logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("fetcher", cfg.Scraper.Fetcher),
	)

	if err = app.setupDatabase(ctx); err != nil {
		return nil, err
	}
	if err = app.setupStorage(ctx); err != nil {
		return nil, err
	}
	pub, err := app.setupPublisher(ctx)
	if err != nil {
		return nil, err
	}
	if err = app.setupProgress(ctx, pub); err != nil {
		return nil, err
	}
	pages := app.setupFetcher()

	geo := httpx.New(httpx.Options{
		Name:      "geojson",
		Timeout:   cfg.ScrapeTimeout(),
		UserAgent: cfg.Scraper.UserAgent,
		Logger:    logger,
	})
	app.scraper = scraper.New(scraper.Config{
		AtlasBaseURL: cfg.Scraper.AtlasBaseURL,
		GeoBaseURL:   cfg.Scraper.GeoBaseURL,
		BatchSize:    cfg.Scraper.BatchSize,
		PageSize:     cfg.Scraper.PageSize,
		BatchDelay:   cfg.Scraper.BatchDelay,
		OutputPrefix: cfg.Scraper.OutputPrefix,
		ContentType:  cfg.Storage.ContentType,
	}, pages, geo, app.blobs, app.clock, logger)
	app.importer = scraper.NewImporter(app.blobs, app.store, cfg.Scraper.ImportPrefix, logger)

	app.setupDispatcher()

	app.scheduler, err = tasks.New(cfg.Cron, tasks.Deps{
		Counters:      app.store,
		Notifications: app.store,
		Reports:       app.store,
		Clock:         app.clock,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler init failed: %w", err)
	}

	app.apiServer = app.setupAPI(geo)
	return app, nil
}

func (a *App) setupDatabase(ctx context.Context) error {
	var err error
	a.store, err = pgstore.New(ctx, pgstore.Config{
		DSN:             a.cfg.Database.DSN,
		MaxConns:        a.cfg.Database.MaxConns,
		MinConns:        a.cfg.Database.MinConns,
		MaxConnLifetime: a.cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("postgres store init failed: %w", err)
	}
	if a.cfg.Database.MigrateOnStart {
		if err := a.store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.logger.Info("schema migrated")
	}
	return nil
}

func (a *App) setupStorage(ctx context.Context) error {
	var err error
	switch a.cfg.Storage.Backend {
	case "gcs":
		a.logger.Info("using GCS storage backend", zap.String("bucket", a.cfg.Storage.Bucket))
		a.gcs, err = gstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("gcs client init failed: %w", err)
		}
		a.blobs, err = gcsstorage.New(a.gcs, gcsstorage.Config{Bucket: a.cfg.Storage.Bucket})
		if err != nil {
			return fmt.Errorf("gcs blob store init failed: %w", err)
		}
	case "local":
		a.logger.Info("using local storage backend", zap.String("path", a.cfg.Storage.LocalDir))
		a.blobs, err = localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.LocalDir})
		if err != nil {
			return fmt.Errorf("local blob store init failed: %w", err)
		}
	default:
		a.logger.Info("using in-memory storage backend")
		a.blobs = memoryStorage.NewBlobStore()
	}
	return nil
}

func (a *App) setupPublisher(ctx context.Context) (publisher.Publisher, error) {
	if a.cfg.PubSub.TopicName == "" || a.cfg.PubSub.ProjectID == "" {
		a.logger.Warn("no Pub/Sub topic configured, using in-memory publisher")
		return memorypublisher.New(), nil
	}
	var err error
	a.pubsub, err = gcppublisher.Dial(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName)
	if err != nil {
		return nil, fmt.Errorf("pubsub init failed: %w", err)
	}
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	return a.pubsub, nil
}

func (a *App) setupProgress(ctx context.Context, pub publisher.Publisher) error {
	a.broker = progresssinks.NewBroker(0)
	promSink, err := progresssinks.NewPrometheusSink(nil)
	if err != nil {
		return fmt.Errorf("progress metrics init failed: %w", err)
	}
	sinkList := []progress.Sink{
		progresssinks.NewStoreSink(a.store, a.logger.Named("progress_store")),
		a.broker,
		promSink,
		progresssinks.NewPublishSink(pub, a.cfg.PubSub.TopicName, a.logger.Named("progress_publish")),
	}
	if a.cfg.Progress.LogEnabled {
		sinkList = append(sinkList, progresssinks.NewLogSink(a.logger.Named("progress_log")))
	}

	hubCfg := progress.Config{
		BufferSize:     a.cfg.Progress.BufferSize,
		MaxBatchEvents: a.cfg.Progress.MaxEvents,
		MaxBatchWait:   time.Duration(a.cfg.Progress.MaxWaitMs) * time.Millisecond,
		SinkTimeout:    time.Duration(a.cfg.Progress.SinkTimeoutMs) * time.Millisecond,
		BaseContext:    ctx,
		Logger:         a.logger.Named("progress_hub"),
	}
	a.progressHub = progress.NewHub(hubCfg, sinkList...)
	a.logger.Info("progress hub initialized",
		zap.Int("sinks", len(sinkList)),
		zap.Int("buffer_size", hubCfg.BufferSize),
		zap.Duration("max_batch_wait", hubCfg.MaxBatchWait),
	)
	return nil
}

func (a *App) setupFetcher() fetcher.Fetcher {
	limiter := ratelimit.New(ratelimit.Config{RPS: a.cfg.Scraper.RPS, Burst: a.cfg.Scraper.Burst})
	probe := collyfetcher.New(collyfetcher.Config{
		UserAgent:     a.cfg.Scraper.UserAgent,
		RespectRobots: true,
		Timeout:       a.cfg.ScrapeTimeout(),
	})
	if a.cfg.Scraper.Fetcher == "colly" {
		a.logger.Info("using colly fetcher", zap.String("user_agent", a.cfg.Scraper.UserAgent))
		return fetcher.Polite(probe, limiter)
	}

	var browser fetcher.Fetcher
	f, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
		Slots:             a.cfg.Scraper.HeadlessSlots,
		UserAgent:         a.cfg.Scraper.UserAgent,
		NavigationTimeout: a.cfg.ScrapeTimeout(),
	})
	if err != nil {
		a.logger.Warn("headless fetcher init failed", zap.Error(err))
		browser = headlessfetcher.NewNoop()
	} else {
		a.headless = f
		browser = f
	}

	if a.cfg.Scraper.Fetcher == "auto" {
		a.logger.Info("using colly fetcher with headless promotion", zap.Int("slots", a.cfg.Scraper.HeadlessSlots))
		promoting := detector.NewPromoting(probe, browser, detector.NewHeuristic(0, "h2", "table"), a.logger)
		return fetcher.Polite(promoting, limiter)
	}
	a.logger.Info("using headless fetcher", zap.Int("slots", a.cfg.Scraper.HeadlessSlots))
	return fetcher.Polite(browser, limiter)
}

func (a *App) setupDispatcher() {
	depth := a.cfg.Worker.QueueDepth
	if depth <= 0 {
		depth = 16
	}
	a.queue = queueMemory.NewQueue(depth)
	workerCfg := worker.Config{
		JobTimeout:   a.cfg.Worker.JobTimeout,
		MaxAttempts:  a.cfg.Worker.MaxAttempts,
		RetryBackoff: a.cfg.Worker.RetryBackoff,
	}
	workers := make([]*worker.Worker, 0, a.cfg.Worker.Concurrency)
	for i := range a.cfg.Worker.Concurrency {
		workers = append(workers, worker.New(i, a.queue, a.scraper, a.progressHub, a.clock, workerCfg, a.logger))
	}
	a.dispatch = dispatcher.New(a.queue, workers)
	a.logger.Info("dispatcher configured",
		zap.Int("workers", len(workers)),
		zap.Int("queue_depth", depth),
		zap.Int("max_attempts", workerCfg.MaxAttempts),
		zap.Duration("job_timeout", workerCfg.JobTimeout),
	)
}

func (a *App) setupAPI(geo *httpx.Client) *api.Server {
	cfg := a.cfg
	var c cache.Cache = cache.Nop{}
	if cfg.Cache.RedisAddr != "" {
		a.redis = cache.NewRedis(cache.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   "atlas:",
		})
		c = a.redis
		a.logger.Info("redis cache enabled", zap.String("addr", cfg.Cache.RedisAddr))
	}

	providers := httpx.New(httpx.Options{Name: "identity", Logger: a.logger})
	verses := httpx.New(httpx.Options{Name: "bible", UserAgent: cfg.Scraper.UserAgent, Logger: a.logger})
	tokens := auth.NewTokens(auth.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})

	a.places = service.NewPlaceService(service.PlaceDeps{
		Places:     a.store,
		GeoJSON:    geo,
		GeoBaseURL: cfg.Scraper.GeoBaseURL,
		Verses:     bible.NewVerseClient(verses, cfg.Bible.VerseBaseURL),
		Cache:      c,
		CacheTTL:   cfg.Cache.TTL,
		Logger:     a.logger,
	})
	svc := api.Services{
		Auth: service.NewAuthService(service.AuthDeps{
			Users:  a.store,
			Tokens: tokens,
			Hasher: auth.NewHasher(cfg.Auth.HashRounds),
			Kakao:  auth.NewKakao(providers, cfg.Auth.KakaoBaseURL, a.logger),
			Google: auth.NewGoogle(providers, cfg.Auth.GoogleBaseURL, a.logger),
			Apple: auth.NewApple(providers, auth.AppleOptions{
				BaseURL:  cfg.Auth.AppleBaseURL,
				BundleID: cfg.Auth.AppBundleID,
				KeysTTL:  cfg.Auth.JWKSTTL,
				Logger:   a.logger,
			}),
			Logger: a.logger,
		}),
		Place: a.places,
		Scrape: service.NewScrapeService(service.ScrapeDeps{
			Jobs:     a.store,
			Queue:    a.dispatch,
			IDs:      uuid.New(),
			Importer: a.importer,
			Clock:    a.clock,
			OnPush:   a.places.InvalidateCounts,
			Logger:   a.logger,
		}),
		Proposal:     service.NewProposalService(a.store, a.store),
		Location:     service.NewLocationService(a.store, a.logger),
		Notification: service.NewNotificationService(a.store),
		Report:       service.NewReportService(a.store),
		PlaceReport:  service.NewPlaceReportService(a.store, a.store),
		PlaceType:    service.NewPlaceTypeService(a.store),
		User:         service.NewUserService(a.store, a.places),
	}
	return api.NewServer(svc, tokens, a.broker, a.clock, api.Options{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RequestTimeout:    cfg.RequestTimeout(),
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   time.Duration(cfg.Server.RateLimitWindowSec) * time.Second,
	}, a.logger)
}

// Run starts the workers, the scheduler and the HTTP server, and blocks
// until ctx is canceled or a termination signal arrives. Resources are
// released by Close.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		a.logger.Info("dispatcher started")
		a.dispatch.Run(ctx)
	}()

	a.scheduler.Start()
	a.logger.Info("scheduler started", zap.Strings("tasks", a.scheduler.Names()))

	srv := &http.Server{
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

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Open progress streams would otherwise hold Shutdown until its deadline.
	_ = a.broker.Close(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop failed", zap.Error(err))
	}
	a.queue.Close()
	select {
	case <-dispatchDone:
	case <-shutdownCtx.Done():
		a.logger.Warn("workers did not stop before the shutdown deadline")
	}
	return nil
}

// ScrapeOnce runs a single listing page synchronously, bypassing the queue.
// Progress still flows through the hub so the job row and metrics update.
func (a *App) ScrapeOnce(ctx context.Context, userID int64, page int) (scraper.Result, error) {
	id, err := uuid.New().NewID()
	if err != nil {
		return scraper.Result{}, err
	}
	job := store.ScrapeJob{ID: id, UserID: userID, Page: page, Status: store.ScrapeQueued, CreatedAt: a.clock.Now()}
	if err := a.store.CreateScrapeJob(ctx, job); err != nil {
		return scraper.Result{}, fmt.Errorf("record scrape job: %w", err)
	}
	return a.scraper.Run(ctx, scraper.Job{ID: id, UserID: userID, Page: page}, a.progressHub)
}

// Push imports the curated files into the place tables and drops the
// cached aggregate counts.
func (a *App) Push(ctx context.Context) (scraper.PushResult, error) {
	res, err := a.importer.Push(ctx)
	if err != nil {
		return scraper.PushResult{}, err
	}
	a.places.InvalidateCounts(ctx)
	return res, nil
}

// Migrate applies the embedded schema.
func (a *App) Migrate(ctx context.Context) error {
	return a.store.Migrate(ctx)
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close releases every resource Build acquired.
func (a *App) Close(ctx context.Context) error {
	a.closeInfrastructure(ctx)
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure(ctx context.Context) {
	if a.progressHub != nil {
		if err := a.progressHub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
		a.progressHub = nil
	}
	if a.headless != nil {
		a.headless.Close()
		a.headless = nil
	}
	if a.pubsub != nil {
		if err := a.pubsub.Close(); err != nil {
			a.logger.Warn("pubsub close failed", zap.Error(err))
		}
		a.pubsub = nil
	}
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
		a.gcs = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
		a.redis = nil
	}
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}
