// Package sheet implements spreadsheet editing and its derived-field hooks.
package sheet

import (
	"context"
	"fmt"
	"strings"

	"tracker_worker/core/domain"
	"tracker_worker/core/port/in"
	"tracker_worker/core/port/out"
	"tracker_worker/core/service/alert"
	"tracker_worker/core/service/progress"
	"tracker_worker/core/service/recipient"
	"tracker_worker/pkg/clock"
	"tracker_worker/pkg/dateutil"
	"tracker_worker/pkg/logger"
)

// Service implements in.SheetService
type Service struct {
	store     out.SheetRepository
	overrides out.OverrideRepository
	ledger    *alert.Ledger
	clock     clock.Clock
}

// NewService creates a new SheetService
func NewService(store out.SheetRepository, overrides out.OverrideRepository, ledger *alert.Ledger, c clock.Clock) *Service {
	if c == nil {
		c = clock.System{}
	}
	return &Service{store: store, overrides: overrides, ledger: ledger, clock: c}
}

// Rows returns the sheet with Sizing progress labels brought up to date.
func (s *Service) Rows(ctx context.Context, sheet domain.Sheet) ([]domain.Record, error) {
	if !sheet.Valid() {
		return nil, domain.ErrUnknownSheet
	}
	if sheet == domain.SheetSizing {
		s.refreshProgress()
	}
	return s.store.Rows(sheet)
}

func (s *Service) AddRow(ctx context.Context, sheet domain.Sheet, afterIndex int) ([]domain.Record, error) {
	rows, err := s.store.AddRow(sheet, afterIndex)
	if err != nil {
		return nil, fmt.Errorf("add row: %w", err)
	}
	return rows, nil
}

func (s *Service) DeleteRow(ctx context.Context, sheet domain.Sheet, index int) ([]domain.Record, error) {
	rows, err := s.store.DeleteRow(sheet, index)
	if err != nil {
		return nil, fmt.Errorf("delete row: %w", err)
	}
	return rows, nil
}

// UpdateCell writes one cell and runs the hooks of that column.
func (s *Service) UpdateCell(ctx context.Context, req *in.UpdateCellRequest) (*domain.Record, error) {
	if req == nil || !req.Sheet.Valid() {
		return nil, domain.ErrUnknownSheet
	}

	ref := domain.RowRef{ID: strings.TrimSpace(req.RowID)}
	if ref.ID == "" {
		if req.Row == nil {
			return nil, domain.ErrInvalidIndex
		}
		ref.Index = *req.Row
	}

	rec, prev, err := s.store.UpdateCell(req.Sheet, ref, req.Column, req.Value)
	if err != nil {
		return nil, fmt.Errorf("update cell: %w", err)
	}

	column := domain.NormalizeField(req.Column)
	switch {
	case req.Sheet == domain.SheetSizing && column == domain.FieldSizingRequest:
		s.deriveKPI(&rec)
	case req.Sheet == domain.SheetSizing && column == domain.FieldSizingKPI:
		s.updateProgress(&rec)
	case req.Sheet == domain.SheetCapPhat && column == domain.FieldCapPhatSRCode:
		// The hook is best-effort; the cell edit itself already succeeded.
		_, _ = s.ledger.RecordMilestone(ctx, rec.ID, prev, req.Value)
	}

	return &rec, nil
}

// deriveKPI recomputes the KPI cell from the request date. A blank request
// clears the KPI; an unparseable one leaves it as it was.
func (s *Service) deriveKPI(rec *domain.Record) {
	requested := strings.TrimSpace(rec.Get(domain.FieldSizingRequest))
	if requested == "" {
		s.setField(rec, domain.SheetSizing, domain.FieldSizingKPI, "")
		s.updateProgress(rec)
		return
	}
	kpi, ok := progress.DeriveKPI(requested)
	if !ok {
		return
	}
	if rec.Get(domain.FieldSizingKPI) != kpi {
		s.setField(rec, domain.SheetSizing, domain.FieldSizingKPI, kpi)
	}
	s.updateProgress(rec)
}

func (s *Service) updateProgress(rec *domain.Record) {
	label := progress.ClassifyRecord(*rec, dateutil.Today(s.clock.Now())).String()
	if rec.Get(domain.FieldSizingProgress) == label {
		return
	}
	s.setField(rec, domain.SheetSizing, domain.FieldSizingProgress, label)
}

func (s *Service) setField(rec *domain.Record, sheet domain.Sheet, field, value string) {
	if err := s.store.SetField(sheet, rec.ID, field, value); err != nil {
		logger.WithError(err).WithField("row_id", rec.ID).Warn("[Sheet] Failed to update %s", field)
		return
	}
	rec.Fields[field] = value
}

func (s *Service) refreshProgress() {
	rows, err := s.store.Rows(domain.SheetSizing)
	if err != nil {
		return
	}
	for i := range rows {
		s.updateProgress(&rows[i])
	}
}

// =============================================================================
// Recipient overrides
// =============================================================================

func (s *Service) ListOverrides(ctx context.Context) (map[string]string, error) {
	return s.overrides.LoadAll(ctx)
}

// SetOverride stores an extra recipient for a row. The address must use the
// gateway syntax.
func (s *Service) SetOverride(ctx context.Context, rowID, address string) error {
	address = strings.TrimSpace(address)
	if strings.TrimSpace(rowID) == "" || !recipient.ValidAddress(address) {
		return domain.ErrInvalidInput
	}
	return s.overrides.Set(ctx, rowID, address)
}

func (s *Service) DeleteOverride(ctx context.Context, rowID string) error {
	return s.overrides.Delete(ctx, rowID)
}

var _ in.SheetService = (*Service)(nil)
