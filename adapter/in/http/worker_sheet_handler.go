package http

import (
	"errors"
	"math"

	"tracker_worker/core/domain"
	"tracker_worker/core/port/in"
	"tracker_worker/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// SheetHandler serves the tracker sheets and the recipient overrides.
type SheetHandler struct {
	sheets in.SheetService
}

func NewSheetHandler(sheets in.SheetService) *SheetHandler {
	return &SheetHandler{sheets: sheets}
}

func (h *SheetHandler) Register(app fiber.Router) {
	app.Post("/update-cell", h.UpdateCell)

	sheets := app.Group("/api/v1/sheets")
	sheets.Get("/", h.ListSheets)
	sheets.Get("/:name", h.GetSheet)
	sheets.Post("/:name/rows", h.AddRow)
	sheets.Delete("/:name/rows/:index", h.DeleteRow)

	overrides := app.Group("/api/v1/recipients")
	overrides.Get("/", h.ListOverrides)
	overrides.Put("/:rowId", h.SetOverride)
	overrides.Delete("/:rowId", h.DeleteOverride)
}

// ListSheets returns the sheet names with their columns.
// GET /api/v1/sheets
func (h *SheetHandler) ListSheets(c *fiber.Ctx) error {
	list := make([]fiber.Map, 0, len(domain.Sheets))
	for _, s := range domain.Sheets {
		list = append(list, fiber.Map{"name": s, "columns": s.Columns()})
	}
	return c.JSON(fiber.Map{"sheets": list})
}

// GetSheet returns every row of one sheet.
// GET /api/v1/sheets/:name
func (h *SheetHandler) GetSheet(c *fiber.Ctx) error {
	sheet := domain.Sheet(c.Params("name"))
	rows, err := h.sheets.Rows(c.UserContext(), sheet)
	if err != nil {
		return ErrorResponse(c, err, "read sheet")
	}
	return c.JSON(fiber.Map{
		"sheet":   sheet,
		"columns": sheet.Columns(),
		"rows":    rowsJSON(rows),
	})
}

// AddRowRequest positions a new row. A missing index appends.
type AddRowRequest struct {
	Index *int `json:"index"`
}

// AddRow inserts a blank row after the given index, or at the end.
// POST /api/v1/sheets/:name/rows
func (h *SheetHandler) AddRow(c *fiber.Ctx) error {
	var req AddRowRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return ErrorResponse(c, apperr.BadRequest("invalid request body"), "add row")
		}
	}
	after := math.MaxInt
	if req.Index != nil {
		after = *req.Index
	}

	rows, err := h.sheets.AddRow(c.UserContext(), domain.Sheet(c.Params("name")), after)
	if err != nil {
		return ErrorResponse(c, err, "add row")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"rows": rowsJSON(rows)})
}

// DeleteRow removes the row at index.
// DELETE /api/v1/sheets/:name/rows/:index
func (h *SheetHandler) DeleteRow(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return ErrorResponse(c, domain.ErrInvalidIndex, "delete row")
	}
	rows, err := h.sheets.DeleteRow(c.UserContext(), domain.Sheet(c.Params("name")), index)
	if err != nil {
		return ErrorResponse(c, err, "delete row")
	}
	return c.JSON(fiber.Map{"rows": rowsJSON(rows)})
}

// UpdateCell writes one cell.
// POST /update-cell
func (h *SheetHandler) UpdateCell(c *fiber.Ctx) error {
	var req in.UpdateCellRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, apperr.BadRequest("invalid request body"), "update cell")
	}
	if _, err := h.sheets.UpdateCell(c.UserContext(), &req); err != nil {
		return ErrorResponse(c, err, "update cell")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// =============================================================================
// Recipient overrides
// =============================================================================

// ListOverrides returns every per-row extra recipient.
// GET /api/v1/recipients
func (h *SheetHandler) ListOverrides(c *fiber.Ctx) error {
	overrides, err := h.sheets.ListOverrides(c.UserContext())
	if err != nil {
		return ErrorResponse(c, err, "list recipients")
	}
	return c.JSON(fiber.Map{"recipients": overrides})
}

type SetOverrideRequest struct {
	Address string `json:"address"`
}

// SetOverride stores an extra recipient for a row.
// PUT /api/v1/recipients/:rowId
func (h *SheetHandler) SetOverride(c *fiber.Ctx) error {
	var req SetOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, apperr.BadRequest("invalid request body"), "set recipient")
	}
	if err := h.sheets.SetOverride(c.UserContext(), c.Params("rowId"), req.Address); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return ErrorResponse(c, apperr.InvalidInput("address", "must look like whatsapp:+<digits>"), "set recipient")
		}
		return ErrorResponse(c, err, "set recipient")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteOverride removes a row's extra recipient.
// DELETE /api/v1/recipients/:rowId
func (h *SheetHandler) DeleteOverride(c *fiber.Ctx) error {
	if err := h.sheets.DeleteOverride(c.UserContext(), c.Params("rowId")); err != nil {
		if errors.Is(err, domain.ErrRowNotFound) {
			return ErrorResponse(c, apperr.NotFound("recipient override"), "delete recipient")
		}
		return ErrorResponse(c, err, "delete recipient")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
