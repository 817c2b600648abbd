package out

import (
	"context"
	"time"

	"tracker_worker/core/domain"
)

// MessageGateway delivers one message to one recipient address.
// Send never returns an error: a failed delivery is reported as false.
type MessageGateway interface {
	Send(ctx context.Context, to, body string, variables map[string]string) bool
	Configured() bool
}

// LedgerRepository persists the first date a row's SR code was set.
type LedgerRepository interface {
	// LoadAll returns every row_id -> date entry.
	LoadAll(ctx context.Context) (map[string]string, error)
	// PutIfAbsent stores date for rowID unless an entry exists.
	// It reports whether a write happened.
	PutIfAbsent(ctx context.Context, rowID, date string) (bool, error)
}

// OverrideRepository persists manually configured recipients keyed by row_id.
type OverrideRepository interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, rowID, address string) error
	Delete(ctx context.Context, rowID string) error
}

// RecordStore is the tabular store the alert scan reads.
type RecordStore interface {
	// Rows returns a snapshot copy of every record in sheet.
	Rows(sheet domain.Sheet) ([]domain.Record, error)
	// SetField writes a derived value without running edit hooks.
	SetField(sheet domain.Sheet, rowID, field, value string) error
}

// AlertEvent is an audit entry for a delivered alert.
type AlertEvent struct {
	RowID     string    `json:"row_id"`
	Sheet     string    `json:"sheet"`
	Ladder    string    `json:"ladder"`
	Rule      string    `json:"rule"`
	To        string    `json:"to"`
	Sent      bool      `json:"sent"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertEventPublisher records dispatch outcomes for later inspection.
type AlertEventPublisher interface {
	PublishAlert(ctx context.Context, event *AlertEvent) error
}

// SheetRepository is the full record store used by the sheet editor.
type SheetRepository interface {
	RecordStore
	Row(sheet domain.Sheet, ref domain.RowRef) (domain.Record, error)
	AddRow(sheet domain.Sheet, afterIndex int) ([]domain.Record, error)
	DeleteRow(sheet domain.Sheet, index int) ([]domain.Record, error)
	// UpdateCell returns the updated row and the previous cell value.
	UpdateCell(sheet domain.Sheet, ref domain.RowRef, column, value string) (domain.Record, string, error)
}
