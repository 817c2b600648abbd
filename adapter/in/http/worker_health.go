package http

import (
	"context"
	"time"

	"tracker_worker/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CircuitReporter reports whether the outbound gateway is failing fast.
type CircuitReporter interface {
	IsCircuitOpen() bool
}

type HealthHandler struct {
	db      HealthChecker
	redis   *redis.Client
	gateway CircuitReporter
	pool    func() metrics.DBPoolStats
}

// NewHealthHandler creates the handler. Every dependency may be nil.
func NewHealthHandler(db HealthChecker, redis *redis.Client, gateway CircuitReporter) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		gateway: gateway,
	}
}

// WithPoolStats adds the ledger pool assessment to /ready.
func (h *HealthHandler) WithPoolStats(stats func() metrics.DBPoolStats) *HealthHandler {
	h.pool = stats
	return h
}

func (h *HealthHandler) Register(app fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
}

// RegisterMetrics exposes reg in the Prometheus text format at /metrics.
func RegisterMetrics(app fiber.Router, reg *prometheus.Registry) {
	if reg == nil {
		return
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := make(map[string]any)
	allHealthy := true

	// Check PostgreSQL
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["postgres"] = "healthy"
		}
		if h.pool != nil {
			checks["postgres_pool"] = metrics.AssessDBPoolHealth(h.pool())
		}
	} else {
		checks["postgres"] = "not configured"
	}

	// Check Redis
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	// An open breaker degrades sends but the service still answers.
	if h.gateway != nil {
		if h.gateway.IsCircuitOpen() {
			checks["gateway"] = "circuit open"
		} else {
			checks["gateway"] = "healthy"
		}
	}

	status := "ready"
	statusCode := fiber.StatusOK
	if !allHealthy {
		status = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
