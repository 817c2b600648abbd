package http

import (
	"context"
	"time"

	"tracker_worker/core/domain"
	"tracker_worker/core/port/in"
	"tracker_worker/core/port/out"
	"tracker_worker/core/service/alert"
	"tracker_worker/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ScheduleReporter exposes the scheduler's armed run.
type ScheduleReporter interface {
	NextRun() (time.Time, bool)
	LastRun() time.Time
}

// EventLister reads the alert audit stream.
type EventLister interface {
	Recent(ctx context.Context, limit int64) ([]out.AlertEvent, error)
}

// GatewayInfo is the non-secret gateway configuration shown by /debug-env.
type GatewayInfo struct {
	AccountSID       string                  `json:"TWILIO_ACCOUNT_SID"`
	AuthToken        string                  `json:"TWILIO_AUTH_TOKEN"`
	From             string                  `json:"TWILIO_WHATSAPP_FROM"`
	ContentSID       string                  `json:"TWILIO_CONTENT_SID"`
	DefaultTo        string                  `json:"WHATSAPP_DEFAULT_TO"`
	Schedule         string                  `json:"ALERT_SCHEDULE"`
	SchedulerEnabled bool                    `json:"SCHEDULER_ENABLED"`
	Contacts         domain.ContactDirectory `json:"contacts"`
}

// AlertHandler serves the manual trigger and alert diagnostics.
type AlertHandler struct {
	alerts   in.AlertService
	schedule ScheduleReporter
	events   EventLister
	info     GatewayInfo

	readGuards []fiber.Handler
}

// NewAlertHandler creates the handler. schedule and events may be nil.
func NewAlertHandler(alerts in.AlertService, schedule ScheduleReporter, events EventLister, info GatewayInfo) *AlertHandler {
	return &AlertHandler{alerts: alerts, schedule: schedule, events: events, info: info}
}

// ProtectReads sets the guards run before the preview and events routes,
// which expose recipient numbers and message bodies.
func (h *AlertHandler) ProtectReads(guards ...fiber.Handler) *AlertHandler {
	h.readGuards = guards
	return h
}

// Register mounts the routes. guards run before the manual trigger.
func (h *AlertHandler) Register(app fiber.Router, guards ...fiber.Handler) {
	app.Post("/trigger-whatsapp-alerts", withGuards(guards, h.Trigger)...)
	app.Get("/debug-env", h.DebugEnv)

	alerts := app.Group("/api/v1/alerts")
	alerts.Get("/schedule", h.Schedule)
	alerts.Get("/preview", withGuards(h.readGuards, h.Preview)...)
	alerts.Get("/events", withGuards(h.readGuards, h.Events)...)
}

func withGuards(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, handler)
}

// Trigger runs one scan now.
// POST /trigger-whatsapp-alerts
func (h *AlertHandler) Trigger(c *fiber.Ctx) error {
	res, err := h.alerts.RunScan(context.WithoutCancel(c.UserContext()), alert.TriggerManual)
	if res == nil {
		res = &domain.ScanResult{}
	}
	if err != nil {
		// Sends already made are reported so the caller does not retry them.
		if res.Sent+res.Failed == 0 {
			logger.WithError(err).Error("[AlertHandler] Manual scan failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to run alerts",
			})
		}
		logger.WithError(err).Warn("[AlertHandler] Manual scan finished with errors")
	}
	return c.JSON(fiber.Map{"sent": res.Sent})
}

// DebugEnv reports the active gateway configuration with the token masked.
// GET /debug-env
func (h *AlertHandler) DebugEnv(c *fiber.Ctx) error {
	return c.JSON(h.info)
}

// Schedule reports the next scheduled scan.
// GET /api/v1/alerts/schedule
func (h *AlertHandler) Schedule(c *fiber.Ctx) error {
	if h.schedule == nil {
		return c.JSON(fiber.Map{"enabled": false})
	}
	resp := fiber.Map{"enabled": true, "times": h.info.Schedule}
	if next, ok := h.schedule.NextRun(); ok {
		resp["next_run"] = next.Format(time.RFC3339)
	}
	if last := h.schedule.LastRun(); !last.IsZero() {
		resp["last_run"] = last.Format(time.RFC3339)
	}
	return c.JSON(resp)
}

// Preview lists the messages a scan would send now.
// GET /api/v1/alerts/preview
func (h *AlertHandler) Preview(c *fiber.Ctx) error {
	msgs, err := h.alerts.Preview(c.UserContext())
	if err != nil && len(msgs) == 0 {
		return ErrorResponse(c, err, "preview alerts")
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return SuccessResponse(c, fiber.Map{"messages": msgs, "total": len(msgs)})
}

// Events lists the most recent dispatch outcomes.
// GET /api/v1/alerts/events?limit=50
func (h *AlertHandler) Events(c *fiber.Ctx) error {
	if h.events == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "alert events are not enabled"})
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	events, err := h.events.Recent(c.UserContext(), int64(limit))
	if err != nil {
		return ErrorResponse(c, err, "read alert events")
	}
	return SuccessResponse(c, fiber.Map{"events": events, "total": len(events)})
}
