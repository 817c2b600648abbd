package http

import (
	"time"

	"tracker_worker/core/domain"
	"tracker_worker/pkg/apperr"
	"tracker_worker/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// =============================================================================
// Standardized Error Response Helpers
// =============================================================================

// APIResponse represents a standard API response
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// APIError represents a standard API error
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse sends a standardized error response for err. Record store
// errors become 400s; anything else is logged and hidden behind a 500.
func ErrorResponse(c *fiber.Ctx, err error, operation string) error {
	appErr := apperr.FromDomain(err)
	if appErr.Status >= fiber.StatusInternalServerError {
		logger.WithError(err).WithField("operation", operation).Error("internal error")
		appErr = apperr.Internal(operation + " failed")
	}
	requestID, _ := c.Locals("request_id").(string)
	return c.Status(appErr.Status).JSON(APIResponse{
		Success:   false,
		Error:     &APIError{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details},
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SuccessResponse sends a standardized JSON success response
func SuccessResponse(c *fiber.Ctx, data any) error {
	requestID, _ := c.Locals("request_id").(string)
	return c.JSON(APIResponse{
		Success:   true,
		Data:      data,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// rowsJSON flattens records into the row shape the sheet front end reads:
// every column plus row_id.
func rowsJSON(rows []domain.Record) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowJSON(r))
	}
	return out
}

func rowJSON(r domain.Record) map[string]string {
	m := make(map[string]string, len(r.Fields)+1)
	for k, v := range r.Fields {
		m[k] = v
	}
	m[domain.FieldRowID] = r.ID
	return m
}
