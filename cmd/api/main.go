package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"imagegrab/internal/adapter/repo"
	"imagegrab/internal/domain"
	"imagegrab/internal/extract"
	"imagegrab/internal/fetch"
	"imagegrab/internal/http/handlers"
	httpapi "imagegrab/internal/http/httpapi"
	"imagegrab/internal/infra"
	"imagegrab/internal/infra/geoip"
	"imagegrab/internal/joblog"
	"imagegrab/internal/metrics"
	"imagegrab/internal/normalize"
	"imagegrab/internal/pipeline"
	"imagegrab/internal/sites"
)

const sweepInterval = time.Minute

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiles, err := sites.Load(cfg.SiteProfilesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load site profiles")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	// Job history is optional; without DATABASE_URL the pool is nil.
	var history domain.JobHistoryRepository
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
		jobRuns := repo.NewJobRunRepository(infra.NewSQLRunner(dbpool, logger))
		if err := jobRuns.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare job history")
		}
		history = jobRuns
	}

	m := metrics.New()
	var fetcher fetch.Fetcher = fetch.NewHTTPFetcher(fetch.Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.FetchTimeout,
		Retries:     cfg.FetchRetries,
		RatePerHost: cfg.FetchRatePerHost,
		Burst:       2,
		Logger:      &logger,
	})
	if cfg.FetchCacheMB > 0 {
		cached, err := fetch.NewCachingFetcher(ctx, fetcher, fetch.CacheOptions{
			TTL:   cfg.FetchCacheTTL,
			MaxMB: cfg.FetchCacheMB,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create fetch cache")
		}
		defer cached.Close()
		fetcher = cached
	}
	runner := pipeline.NewRunner(pipeline.Options{
		Fetcher: fetcher,
		URLs:    normalize.NewPipeline(extract.MustNew(nil, nil), normalize.NewNormalizer(profiles)),
		Metrics: m,
		Logger:  &logger,
	})
	jobs := joblog.NewStore()

	app := handlers.NewApp(cfg, &logger, jobs, runner, m, history)
	router := httpapi.NewRouter(app, cfg, logger, resolver.Lookup())
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Msgf("API listening on %s", server.Addr())
		return server.Start()
	})
	g.Go(func() error {
		return jobs.Run(gctx, sweepInterval, cfg.JobLogTTL)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
