package bootstrap

import (
	"context"
	"os"

	"tracker_worker/adapter/in/http"
	"tracker_worker/adapter/in/worker"
	"tracker_worker/config"
	"tracker_worker/core/domain"
	"tracker_worker/core/port/in"
	"tracker_worker/pkg/logger"
)

// InitLogger configures the global logger from cfg.
func InitLogger(cfg *config.Config) {
	lc := logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Output:  os.Stdout,
		Service: "tracker-alerts",
		Console: cfg.IsDevelopment(),
	}
	if cfg.LogOutput == "file" {
		lc.File = &logger.FileConfig{
			Path:       cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
			Compress:   true,
		}
	}
	logger.Configure(lc)
}

// Worker runs the alert scheduler.
type Worker struct {
	scheduler *worker.AlertScheduler
}

// NewWorker builds the scheduler. With reload set, the record store is read
// from disk before every scan and never written back; this is for a
// scheduler running apart from the API process that owns the store.
func NewWorker(cfg *config.Config, deps *Dependencies, reload bool) (*Worker, error) {
	times, err := worker.ParseSchedule(cfg.AlertSchedule)
	if err != nil {
		return nil, err
	}

	var scanner in.AlertService = deps.AlertService
	if reload {
		deps.Store.SetReadOnly(true)
		scanner = &reloadingScanner{AlertService: deps.AlertService, deps: deps}
	}

	return &Worker{
		scheduler: worker.NewAlertScheduler(scanner, times, cfg.SchedulerRetry()),
	}, nil
}

func (w *Worker) Start() {
	w.scheduler.Start()
}

func (w *Worker) Stop() {
	w.scheduler.Stop()
}

// Schedule exposes the scheduler to the API, or nil without one.
func (w *Worker) Schedule() http.ScheduleReporter {
	if w == nil {
		return nil
	}
	return w.scheduler
}

// reloadingScanner refreshes the record store before each scan.
type reloadingScanner struct {
	in.AlertService
	deps *Dependencies
}

func (r *reloadingScanner) RunScan(ctx context.Context, trigger string) (*domain.ScanResult, error) {
	if err := r.deps.Store.Load(ctx); err != nil {
		logger.WithError(err).Warn("[AlertScheduler] Store reload failed, scanning the last loaded state")
	}
	return r.AlertService.RunScan(ctx, trigger)
}
