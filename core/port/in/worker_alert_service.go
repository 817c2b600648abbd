package in

import (
	"context"

	"tracker_worker/core/domain"
)

// AlertService defines the interface for alert scans.
type AlertService interface {
	// RunScan evaluates every ladder and sends what fired.
	RunScan(ctx context.Context, trigger string) (*domain.ScanResult, error)
	// Preview returns the messages a scan would send now.
	Preview(ctx context.Context) ([]domain.Message, error)
}

// SheetService defines the interface for sheet editing.
type SheetService interface {
	Rows(ctx context.Context, sheet domain.Sheet) ([]domain.Record, error)
	AddRow(ctx context.Context, sheet domain.Sheet, afterIndex int) ([]domain.Record, error)
	DeleteRow(ctx context.Context, sheet domain.Sheet, index int) ([]domain.Record, error)
	UpdateCell(ctx context.Context, req *UpdateCellRequest) (*domain.Record, error)

	// === Recipient overrides ===
	ListOverrides(ctx context.Context) (map[string]string, error)
	SetOverride(ctx context.Context, rowID, address string) error
	DeleteOverride(ctx context.Context, rowID string) error
}

// UpdateCellRequest edits one cell. RowID wins over Row when both are set.
type UpdateCellRequest struct {
	Sheet  domain.Sheet `json:"sheet"`
	Row    *int         `json:"row,omitempty"`
	RowID  string       `json:"rowId,omitempty"`
	Column string       `json:"col"`
	Value  string       `json:"value"`
}
