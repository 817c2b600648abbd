package bootstrap

import (
	"context"
	"strings"
	"time"

	"tracker_worker/adapter/in/http"
	"tracker_worker/config"
	"tracker_worker/infra/middleware"
	"tracker_worker/pkg/logger"
	"tracker_worker/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
)

// Request budgets per client IP.
const (
	triggerLimit  = 5
	triggerWindow = time.Minute
	readLimit     = 60
	readWindow    = time.Minute
)

// NewAPI builds the HTTP surface. schedule may be nil when the scheduler
// does not run in this process.
func NewAPI(ctx context.Context, cfg *config.Config, deps *Dependencies, schedule http.ScheduleReporter) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json for every request and response body
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:          1 * 1024 * 1024,
		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(helmet.New())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := allowOrigins != "" && allowOrigins != "*"
	if !allowCredentials && cfg.IsProduction() {
		allowOrigins = ""
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health and metrics (no auth required)
	health := http.NewHealthHandler(nil, deps.Redis, deps.Gateway)
	if pg := deps.Postgres; pg != nil {
		health = http.NewHealthHandler(pg, deps.Redis, deps.Gateway).
			WithPoolStats(func() metrics.DBPoolStats { return metrics.GetDBPoolStats(pg.DB.DB) })
	}
	health.Register(app)
	http.RegisterMetrics(app, deps.Metrics.Registry())

	// Guards for the manual trigger and for the alert preview/events reads
	guards := []fiber.Handler{middleware.NewRateLimiter(ctx, triggerLimit, triggerWindow).Handler()}
	readGuards := []fiber.Handler{middleware.NewRateLimiter(ctx, readLimit, readWindow).Handler()}
	if cfg.JWTSecret != "" {
		auth := middleware.JWTAuth(cfg.JWTSecret)
		guards = append(guards, auth)
		readGuards = append(readGuards, auth)
	} else if cfg.IsProduction() {
		logger.Warn("JWT_SECRET is empty, the manual trigger and alert previews are unauthenticated")
	}

	info := http.GatewayInfo{
		AccountSID:       cfg.TwilioAccountSID,
		AuthToken:        cfg.MaskedAuthToken(),
		From:             cfg.TwilioWhatsAppFrom,
		ContentSID:       cfg.TwilioContentSID,
		DefaultTo:        cfg.Contacts.DefaultRecipient,
		Schedule:         cfg.AlertSchedule,
		SchedulerEnabled: cfg.SchedulerEnabled,
		Contacts:         cfg.Contacts,
	}

	var events http.EventLister
	if deps.EventReader != nil {
		events = deps.EventReader
	}
	http.NewAlertHandler(deps.AlertService, schedule, events, info).
		ProtectReads(readGuards...).
		Register(app, guards...)
	http.NewSheetHandler(deps.SheetService).Register(app)

	logger.Info("API server initialized successfully")
	return app
}
