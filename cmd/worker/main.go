package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/xaco47/wedding-archive-go/internal/cache"
	"github.com/xaco47/wedding-archive-go/internal/config"
	workerHandler "github.com/xaco47/wedding-archive-go/internal/handler/worker"
	"github.com/xaco47/wedding-archive-go/internal/imgurl"
	"github.com/xaco47/wedding-archive-go/internal/intercept"
	"github.com/xaco47/wedding-archive-go/internal/listing"
	"github.com/xaco47/wedding-archive-go/internal/logger"
	"github.com/xaco47/wedding-archive-go/internal/task"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set to run the worker")
		os.Exit(1)
	}

	logger.Init()

	ca := cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
	ca.CheckVersion(ctx)

	resolver := imgurl.NewResolver(cfg.PublicBaseURL)
	fetcher := listing.NewFetcher(ca, cfg.ListingTTL, buildSources(cfg)...)
	interceptor := initInterceptor(ctx, cfg)

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeRefreshListing, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseRefreshListingPayload(t)
		if err != nil {
			return err
		}
		return workerHandler.RefreshListingHandler(ctx, p, fetcher)
	})
	mux.HandleFunc(task.TypeWarmCategory, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseWarmCategoryPayload(t)
		if err != nil {
			return err
		}
		return workerHandler.WarmCategoryHandler(ctx, p, fetcher, resolver, interceptor)
	})

	runWorker(ctx, mux, cfg)
}

// buildSources orders the listing providers: the static manifest answers
// first, the live endpoint is the fallback.
func buildSources(cfg *config.Settings) []listing.Source {
	var sources []listing.Source
	if len(cfg.ManifestURLs) > 0 {
		sources = append(sources, &listing.ManifestSource{URLs: cfg.ManifestURLs})
	}
	if cfg.ListingAPIURL != "" {
		sources = append(sources, &listing.APISource{BaseURL: cfg.ListingAPIURL})
	}
	return sources
}

// initInterceptor brings the shared byte cache online so warm-category tasks
// land their fetches in the same store the clients read from.
func initInterceptor(ctx context.Context, cfg *config.Settings) *intercept.Interceptor {
	i := intercept.New(intercept.Options{
		Store:        intercept.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword),
		Origin:       cfg.AppOrigin,
		OfflineShell: cfg.OfflineShell,
	})
	i.Install(ctx)
	i.Activate(ctx)
	return i
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{Concurrency: 10})

	// Run server in background
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "❌  Worker failed: %v", err)
			os.Exit(1)
		}
	}()
	logger.Info(ctx, "🚀 Worker started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// Give Asynq up to 30 sec to finish tasks
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown()       // stop accepting new tasks, finish in-flight
	<-shutdownCtx.Done() // either timeout or done

	logger.Info(ctx, "✅  Worker gracefully stopped")
}
