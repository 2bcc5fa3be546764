package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewloop/internal/app"
	"reviewloop/internal/config"
	"reviewloop/internal/ratelimit"
	"reviewloop/internal/server"
	"reviewloop/internal/util"
	"reviewloop/pkg/ai"
	"reviewloop/pkg/queue"
	"reviewloop/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	providerTimeout := time.Duration(cfg.ProviderTimeoutSecs) * time.Second
	engine, err := app.New(app.Config{
		Store:                dataStore,
		Adapters:             ai.DefaultAdapters(providerTimeout),
		Discovery:            ai.NewDiscovery(),
		Logger:               logger,
		WordCountLadder:      cfg.ReplenishLadder,
		ReplenishConcurrency: cfg.ReplenishConcurrency,
		MaxOutputTokens:      cfg.MaxOutputTokens,
	})
	if err != nil {
		log.Fatalf("failed to init engine: %v", err)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var jobQueue *queue.RedisJobQueue
	if cfg.RedisAddr != "" {
		stream := cfg.QueueStream
		if stream == "" {
			stream = "replenish_jobs"
		}
		jobQueue, err = queue.NewRedisJobQueue(queue.RedisQueueConfig{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			Stream:     stream,
			Group:      cfg.QueueGroup,
			MaxRetries: cfg.QueueMaxRetries,
		})
		if err != nil {
			log.Fatalf("failed to init queue: %v", err)
		}
		concurrency := cfg.QueueConcurrency
		if concurrency <= 0 {
			concurrency = 1
		}
		jobQueue.Start(workerCtx, concurrency, func(ctx context.Context, job queue.ReplenishJob) error {
			return engine.EnsurePoolSize(ctx, job.CategoryID, job.BusinessID)
		})
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	serverCfg := server.Config{
		App:                engine,
		ServiceTokenSecret: cfg.ServiceTokenSecret,
		TrustedProxies:     trusted,
	}
	if jobQueue != nil {
		serverCfg.Queue = jobQueue
	}
	if cfg.RedisAddr != "" && cfg.PublicRateLimit > 0 {
		window := time.Duration(cfg.PublicRateWindowSecs) * time.Second
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.PublicRateLimit, window)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
		serverCfg.Limiter = limiter
	}
	httpServer, err := server.New(serverCfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("reviewloop server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	stopWorkers()
	// Let in-flight fire-and-forget regenerations land before exiting.
	engine.WaitBackground()
}
