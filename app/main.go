package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kwabenabassaw/feed-backend/app/analytics"
	"github.com/Kwabenabassaw/feed-backend/app/api"
	"github.com/Kwabenabassaw/feed-backend/app/cfg"
	"github.com/Kwabenabassaw/feed-backend/app/database"
	"github.com/Kwabenabassaw/feed-backend/app/feed"
	"github.com/Kwabenabassaw/feed-backend/app/index"
	"github.com/Kwabenabassaw/feed-backend/app/store"
	"github.com/Kwabenabassaw/feed-backend/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting feed backend", "version", appCfg.Version)

	params, err := cfg.LoadParams(appCfg.ParamsFile)
	if err != nil {
		slog.Error("Failed to load feed parameters", "error", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	redisClient, err := store.NewClient(appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisDB)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	contentRepo := database.NewContentRepository(db)
	userRepo := database.NewUserRepository(db)

	dedupStore := store.NewDedupStore(redisClient,
		time.Duration(params.SessionTTLSeconds)*time.Second,
		time.Duration(params.BloomResetIntervalHours)*time.Hour,
		params.BloomCapacity, params.BloomFalsePositive)
	planStore := store.NewPlanStore(redisClient, time.Duration(params.PlanTTLSeconds)*time.Second)
	contextCache := store.NewContextCache(redisClient, time.Duration(params.ContextTTLSeconds)*time.Second)

	pool := index.NewPool()
	httpClient := &http.Client{Timeout: 30 * time.Second}
	loader := index.NewLoader(pool, httpClient, appCfg.IndexBaseURL, appCfg.IndexDir, appCfg.UserAgent)

	warmIndexPool(loader, appCfg.IndexBuckets, params.Genres)

	emitter := analytics.NewEmitter(analytics.NewRedisSink(redisClient))
	emitter.Start()
	defer emitter.Stop()

	contextLoader := feed.NewContextLoader(userRepo, contextCache,
		time.Duration(appCfg.SourceTimeout)*time.Millisecond)
	generator := feed.NewGenerator(pool, dedupStore, planStore, params)
	paginator := feed.NewPaginator(planStore)
	hydrator := feed.NewHydrator(contentRepo, time.Duration(params.HydrationTTLSeconds)*time.Second)
	service := feed.NewService(contextLoader, generator, paginator, hydrator, params)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"interval_seconds", appCfg.IndexRefreshInterval)
	scheduler := tasks.NewScheduler(loader, emitter, params)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(service, pool, hydrator, emitter, contentRepo, appCfg.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler and emitter are stopped via defer
	slog.Info("Shutdown complete")
}

// warmIndexPool does a best-effort synchronous refresh of every
// scheduled bucket so the first requests do not hit a cold pool.
// Buckets that fail here stay cold until the scheduler retries them.
func warmIndexPool(loader *index.Loader, baseBuckets, genres []string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	buckets := append([]string{}, baseBuckets...)
	for _, genre := range genres {
		buckets = append(buckets, index.GenreBucket(genre))
	}

	loaded := 0
	for _, bucket := range buckets {
		if err := loader.Refresh(ctx, bucket); err != nil {
			slog.Warn("Initial index load failed", "bucket", bucket, "error", err)
			continue
		}
		loaded++
	}
	slog.Info("Index pool warmed", "loaded", loaded, "total", len(buckets))
}
