package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/hrtlog/internal/config"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver"
	"github.com/MrSnakeDoc/hrtlog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hrtlog/internal/index"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/metrics"
	"github.com/MrSnakeDoc/hrtlog/internal/redis"
	"github.com/MrSnakeDoc/hrtlog/internal/scheduler"
	"github.com/MrSnakeDoc/hrtlog/internal/settings"
	"github.com/MrSnakeDoc/hrtlog/internal/store"
	redisstore "github.com/MrSnakeDoc/hrtlog/internal/store/redis"
	"github.com/MrSnakeDoc/hrtlog/internal/version"
)

// App is the long-running service: HTTP API plus the background loops
// that keep the timeline index fresh.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       *store.Store
	index       *index.TimelineIndex
	cache       *redisstore.Store
	reloader    *scheduler.TimelineReloader
	watcher     *scheduler.FileWatcher
	seeder      *scheduler.ResourceSeeder
	sweeper     *scheduler.TempSweeper
}

// New wires every component. Redis is optional: when it is configured but
// unreachable the service starts without the query cache.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	m := metrics.New()

	st := store.New(cfg.DataDir, loggerClient, store.WithObserver(m))
	idx := index.NewTimelineIndex()

	var (
		redisClient *goredis.Client
		cache       *redisstore.Store
	)
	if cfg.CacheEnabled() {
		client, err := redis.Connect(ctx, redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, running without query cache",
				logger.Error(err))
		} else {
			redisClient = client
			cache = redisstore.NewStore(client, cfg.CacheTTL)

			// Warm the index so reads work before the first reload finishes
			syncer := scheduler.NewRedisSyncer(cache, idx, loggerClient)
			if err := syncer.Sync(ctx); err != nil {
				loggerClient.Warn("failed to sync from redis on startup, will load from disk",
					logger.Error(err))
			}
		}
	} else {
		loggerClient.Info("redis not configured, query cache disabled")
	}

	reloadTrigger := make(chan struct{}, 1)
	reloader := scheduler.NewTimelineReloader(
		st,
		cache,
		idx,
		m,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	var watcher *scheduler.FileWatcher
	if cfg.WatchFiles {
		watcher = scheduler.NewFileWatcher(cfg.DataDir, cfg.WatchDebounce, reloader.Trigger, loggerClient)
	}

	var seeder *scheduler.ResourceSeeder
	if cfg.ResourceSeedFile != "" {
		loggerClient.Info("resource seed file configured",
			logger.String("file", cfg.ResourceSeedFile))
		seeder = scheduler.NewResourceSeeder(cfg.ResourceSeedFile, st, loggerClient, cfg.ReloadInterval)
	}

	sweeper := scheduler.NewTempSweeper(cfg.DataDir, loggerClient, cfg.ReloadInterval, scheduler.DefaultTempThreshold)

	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		RateBurst:        cfg.RateBurst,
		RateRefillPerMin: cfg.RateRefillPerMin,
		Store:            st,
		Settings:         settings.Open(cfg.Path(store.SettingsFile), loggerClient),
		Index:            idx,
		Cache:            cache,
		Reloader:         reloader,
		ReloadTrigger:    reloadTrigger,
		Metrics:          m,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		store:       st,
		index:       idx,
		cache:       cache,
		reloader:    reloader,
		watcher:     watcher,
		seeder:      seeder,
		sweeper:     sweeper,
	}, nil
}

// Run starts the background loops and the HTTP server, and blocks until ctx
// is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting hrtlog v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	// Seed before the first reload so seeded resources are on disk
	if a.seeder != nil {
		if err := a.seeder.Start(ctx); err != nil {
			a.logger.Warn("resource seeding failed, continuing without it",
				logger.Error(err))
		}
	}

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start timeline reloader: %w", err)
	}
	a.logger.Info("timeline reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval),
		logger.Int("entries", a.index.Count()))

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.logger.Warn("file watcher disabled", logger.Error(err))
			a.watcher = nil
		}
	}

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start temp sweeper: %w", err)
	}

	ln, err := net.Listen("tcp", a.cfg.ListenPort)
	if err != nil {
		a.stopLoops()
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.ListenPort, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Serve(ln); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		a.stopLoops()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	err = g.Wait()
	a.closeRedis()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.logger.Info("✅ hrtlog stopped cleanly")
	return nil
}

func (a *App) stopLoops() {
	a.reloader.Stop()
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.seeder != nil {
		a.seeder.Stop()
	}
	a.sweeper.Stop()
}

func (a *App) closeRedis() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}
}
