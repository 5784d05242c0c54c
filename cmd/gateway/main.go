package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xaco47/wedding-archive-go/internal/cache"
	"github.com/xaco47/wedding-archive-go/internal/config"
	"github.com/xaco47/wedding-archive-go/internal/handler/gateway"
	"github.com/xaco47/wedding-archive-go/internal/imgurl"
	"github.com/xaco47/wedding-archive-go/internal/listing"
	"github.com/xaco47/wedding-archive-go/internal/logger"
	cMiddleware "github.com/xaco47/wedding-archive-go/internal/middleware"
	"github.com/xaco47/wedding-archive-go/internal/port"
	"github.com/xaco47/wedding-archive-go/internal/resize"
	"github.com/xaco47/wedding-archive-go/internal/storage"
	"github.com/xaco47/wedding-archive-go/internal/task"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	r := initRouter(ctx)

	strg := initStorage(ctx, cfg)
	initBucket(ctx, strg, cfg.MediaBucket)

	var ca port.KVCache
	var dispatcher port.TaskDispatcher
	if cfg.RedisAddr != "" {
		redisCache := cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
		redisCache.CheckVersion(ctx)
		ca = redisCache
		dispatcher = task.NewDispatcher(cfg.RedisAddr, cfg.RedisPassword)
		logger.Info(ctx, "✅  Redis cache enabled")
	} else {
		ca = cache.NewNoop()
		dispatcher = task.NewNoopDispatcher()
		logger.Warn(ctx, "⚠️  Redis not configured — caching is disabled")
	}

	resolver := imgurl.NewResolver(cfg.PublicBaseURL)
	fetcher := listing.NewFetcher(ca, cfg.ListingTTL, buildSources(cfg)...)
	if cfg.RedisAddr != "" {
		// with a queue available the worker owns stale-listing refreshes
		fetcher.WithDispatcher(dispatcher)
	}
	rz := resize.NewResizer(resize.NewWebPEncoder())

	r.Get("/img/*", gateway.ResizeImageHandler(strg, rz, cfg.MediaBucket))
	r.With(cMiddleware.WithCategoryID()).
		Get("/api/categories/{categoryId}", gateway.GetCategoryHandler(fetcher, resolver))
	r.With(cMiddleware.WithCategoryID()).
		Post("/api/categories/{categoryId}/warm", gateway.WarmCategoryHandler(dispatcher))

	listenRouter(ctx, r, cfg)
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

func initRouter(ctx context.Context) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(cMiddleware.WithRequestID())

	r.NotFound(gateway.NotFoundHandler())
	r.MethodNotAllowed(gateway.MethodNotAllowedHandler())

	return r
}

func initStorage(ctx context.Context, cfg *config.Settings) port.Storage {
	strg, err := storage.NewStorage(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioUseSSL,
	)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}

	return strg
}

func initBucket(ctx context.Context, strg port.Storage, bucket string) {
	if err := strg.InitBucket(bucket); err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize bucket %q: %v", bucket, err)
		os.Exit(1)
	}
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 Gateway listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Server gracefully stopped")
}
