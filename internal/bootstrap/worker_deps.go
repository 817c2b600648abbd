package bootstrap

import (
	"context"
	"fmt"

	"tracker_worker/adapter/out/messaging"
	"tracker_worker/adapter/out/persistence"
	"tracker_worker/adapter/out/provider"
	"tracker_worker/config"
	"tracker_worker/core/port/out"
	"tracker_worker/core/service/alert"
	"tracker_worker/core/service/recipient"
	"tracker_worker/core/service/sheet"
	"tracker_worker/infra/database"
	"tracker_worker/pkg/clock"
	"tracker_worker/pkg/logger"
	"tracker_worker/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// Dependencies is the object graph shared by the API and the scheduler.
type Dependencies struct {
	Config   *config.Config
	Postgres *database.Postgres
	Redis    *redis.Client
	Metrics  *metrics.AlertMetrics

	// Repositories
	Store     *persistence.SheetStore
	Ledger    out.LedgerRepository
	Overrides out.OverrideRepository

	// Adapters
	Gateway     *provider.TwilioAdapter
	Events      out.AlertEventPublisher
	EventReader *messaging.EventReader

	// Services
	AlertService *alert.Service
	SheetService *sheet.Service
}

// NewDependencies connects the configured backends and wires the services.
// The returned cleanup closes every connection that was opened.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	m, err := metrics.NewAlertMetrics()
	if err != nil {
		return fail(err)
	}
	deps.Metrics = m

	// Redis is required by the redis backend and optional otherwise.
	if cfg.RedisURL != "" {
		client, err := database.NewRedis(ctx, cfg.RedisURL, nil)
		switch {
		case err == nil:
			deps.Redis = client
			closers = append(closers, func() { _ = client.Close() })
			logger.Info("Redis connected")
		case cfg.StoreBackend == config.BackendRedis:
			return fail(fmt.Errorf("connect redis: %w", err))
		default:
			logger.WithError(err).Warn("Redis unavailable, alert events disabled")
		}
	}

	if cfg.StoreBackend == config.BackendPostgres {
		pg, err := database.NewPostgres(ctx, cfg.DatabaseURL, nil)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		deps.Postgres = pg
		closers = append(closers, pg.Close)
		if err := m.RegisterDBStats("ledger", pg.DB.DB); err != nil {
			logger.WithError(err).Warn("Failed to register pool metrics")
		}
		logger.Info("PostgreSQL connected")
	}

	if err := deps.initRepositories(ctx); err != nil {
		return fail(err)
	}

	deps.Gateway = provider.NewTwilioAdapter(provider.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppFrom,
		ContentSID: cfg.TwilioContentSID,
		APIBase:    cfg.TwilioAPIBase,
		Timeout:    cfg.SendTimeout(),
	})
	if !deps.Gateway.Configured() {
		logger.Warn("Twilio credentials missing, alerts will not be delivered")
	}

	if deps.Redis != nil && cfg.AlertEventsEnabled {
		deps.Events = messaging.NewRedisProducer(deps.Redis, cfg.AlertEventsMaxLen)
		deps.EventReader = messaging.NewEventReader(deps.Redis, logger.Component("alert_events"))
	}

	sysClock := clock.System{}
	ledger := alert.NewLedger(deps.Ledger, sysClock, m)

	deps.AlertService = alert.NewService(alert.ServiceDeps{
		Records:    deps.Store,
		Overrides:  deps.Overrides,
		Ledger:     ledger,
		Resolver:   recipient.NewResolver(cfg.Contacts),
		Dispatcher: alert.NewDispatcher(deps.Gateway, deps.Events, m, cfg.DispatchWorkers),
		Clock:      sysClock,
		Metrics:    m,
	})
	deps.SheetService = sheet.NewService(deps.Store, deps.Overrides, ledger, sysClock)

	return deps, cleanup, nil
}

// initRepositories picks the ledger and override backends. The record store
// always lives in DATA_DIR.
func (d *Dependencies) initRepositories(ctx context.Context) error {
	cfg := d.Config

	d.Store = persistence.NewSheetStore(cfg.DataDir)
	if err := d.Store.Load(ctx); err != nil {
		logger.WithError(err).Warn("Failed to load record store, starting with blank sheets")
	}

	switch cfg.StoreBackend {
	case config.BackendRedis:
		d.Ledger = persistence.NewRedisLedgerRepository(d.Redis)
	case config.BackendPostgres:
		sqlLedger := persistence.NewSQLLedgerRepository(d.Postgres.DB)
		if err := sqlLedger.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ledger schema: %w", err)
		}
		d.Ledger = sqlLedger
	default:
		d.Ledger = persistence.NewFileLedgerRepository(cfg.DataDir)
	}

	if d.Redis != nil && cfg.StoreBackend != config.BackendFile {
		d.Overrides = persistence.NewRedisOverrideRepository(d.Redis)
	} else {
		d.Overrides = persistence.NewFileOverrideRepository(cfg.DataDir)
	}

	logger.Info("Storage initialized (backend=%s, data_dir=%s)", cfg.StoreBackend, cfg.DataDir)
	return nil
}
