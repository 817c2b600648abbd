package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tracker_worker/config"
	"tracker_worker/internal/bootstrap"
	"tracker_worker/pkg/logger"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
)

func main() {
	// Initialize logger early
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "tracker-alerts",
	})

	mode := flag.String("mode", "all", "Run mode: api, worker, all")
	configPath := flag.String("config", "", "YAML config file (defaults to CONFIG_FILE or ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	bootstrap.InitLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := bootstrap.NewDependencies(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies: %v", err)
	}
	defer cleanup()

	switch *mode {
	case "api":
		runAPI(ctx, cfg, deps, nil)
	case "worker":
		runWorker(ctx, cfg, deps)
	case "all":
		var w *bootstrap.Worker
		if cfg.SchedulerEnabled {
			w, err = bootstrap.NewWorker(cfg, deps, false)
			if err != nil {
				logger.Fatal("Failed to initialize scheduler: %v", err)
			}
			w.Start()
			defer w.Stop()
		} else {
			logger.Info("Scheduler disabled, alerts run only on manual trigger")
		}
		runAPI(ctx, cfg, deps, w)
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, deps *bootstrap.Dependencies, w *bootstrap.Worker) {
	app := bootstrap.NewAPI(ctx, cfg, deps, w.Schedule())

	// Graceful shutdown with timeout
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)

		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("Error shutting down: %v", err)
		} else {
			logger.Info("API server shut down gracefully")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Error("Failed to start server: %v", err)
		os.Exit(1)
	}
}

func runWorker(ctx context.Context, cfg *config.Config, deps *bootstrap.Dependencies) {
	w, err := bootstrap.NewWorker(cfg, deps, true)
	if err != nil {
		logger.Fatal("Failed to initialize worker: %v", err)
	}

	logger.Info("Starting worker...")
	w.Start()
	<-ctx.Done()

	logger.Info("Shutting down worker (timeout: %v)...", shutdownTimeout)
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Worker shut down gracefully")
	case <-time.After(shutdownTimeout):
		logger.Warn("Worker shutdown timed out, forcing exit")
	}
}
