// Package alert evaluates the escalation ladders over the tracker sheets and
// dispatches the resulting messages.
package alert

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"tracker_worker/core/domain"
	"tracker_worker/core/port/out"
	"tracker_worker/core/service/progress"
	"tracker_worker/core/service/recipient"
	"tracker_worker/pkg/clock"
	"tracker_worker/pkg/dateutil"
	"tracker_worker/pkg/logger"
	"tracker_worker/pkg/metrics"
)

// Scan triggers, used as a metrics label.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// scannedSheets are the datasets that carry escalation rules.
var scannedSheets = []domain.Sheet{domain.SheetSizing, domain.SheetCapPhat}

// Service runs alert scans.
type Service struct {
	records    out.RecordStore
	overrides  out.OverrideRepository
	ledger     *Ledger
	resolver   *recipient.Resolver
	dispatcher *Dispatcher
	clock      clock.Clock
	metrics    *metrics.AlertMetrics
}

// ServiceDeps groups the collaborators of Service.
type ServiceDeps struct {
	Records    out.RecordStore
	Overrides  out.OverrideRepository
	Ledger     *Ledger
	Resolver   *recipient.Resolver
	Dispatcher *Dispatcher
	Clock      clock.Clock
	Metrics    *metrics.AlertMetrics
}

// NewService creates a new alert service.
func NewService(d ServiceDeps) *Service {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	return &Service{
		records:    d.Records,
		overrides:  d.Overrides,
		ledger:     d.Ledger,
		resolver:   d.Resolver,
		dispatcher: d.Dispatcher,
		clock:      d.Clock,
		metrics:    d.Metrics,
	}
}

// RunScan evaluates every ladder once and dispatches what fired. The
// returned error only reports sheets that could not be read; the sheets
// that could be read are still processed.
func (s *Service) RunScan(ctx context.Context, trigger string) (*domain.ScanResult, error) {
	start := s.clock.Now()
	today := dateutil.Today(start)

	s.RefreshProgress(today)

	msgs, skipped, err := s.collect(ctx, today)
	res := s.dispatcher.Dispatch(ctx, msgs)

	result := &domain.ScanResult{
		Sent:      res.Sent,
		Failed:    res.Failed,
		Skipped:   skipped,
		ByLadder:  res.ByLadder,
		StartedAt: start,
		Duration:  time.Since(start),
	}
	s.metrics.ObserveScan(trigger, result.Duration, err)

	logger.WithFields(map[string]any{
		"trigger":     trigger,
		"sent":        result.Sent,
		"failed":      result.Failed,
		"skipped":     result.Skipped,
		"kpi_due":     result.ByLadder[domain.LadderKPI],
		"sr_creation": result.ByLadder[domain.LadderSRCreation],
		"sr_followup": result.ByLadder[domain.LadderSRFollowUp],
	}).WithDuration(result.Duration).Info("[AlertScan] Scan finished: %d sent", result.Sent)

	return result, err
}

// Preview returns the messages a scan would send now, without sending them.
func (s *Service) Preview(ctx context.Context) ([]domain.Message, error) {
	msgs, _, err := s.collect(ctx, dateutil.Today(s.clock.Now()))
	return msgs, err
}

// RefreshProgress rewrites the Tiến độ field of every Sizing row whose label changed.
func (s *Service) RefreshProgress(today time.Time) {
	rows, err := s.records.Rows(domain.SheetSizing)
	if err != nil {
		logger.WithError(err).Warn("[AlertScan] Progress refresh skipped")
		return
	}
	for _, rec := range rows {
		label := progress.ClassifyRecord(rec, today).String()
		if rec.Get(domain.FieldSizingProgress) == label {
			continue
		}
		if err := s.records.SetField(domain.SheetSizing, rec.ID, domain.FieldSizingProgress, label); err != nil {
			logger.WithError(err).WithField("row_id", rec.ID).Warn("[AlertScan] Failed to update progress")
		}
	}
}

// collect evaluates every record and expands fired alerts into one message
// per recipient. skipped counts records with alerts but no recipients.
func (s *Service) collect(ctx context.Context, today time.Time) ([]domain.Message, int, error) {
	overrides := s.loadOverrides(ctx)
	ledger := s.ledger.Snapshot(ctx)

	var (
		msgs    []domain.Message
		skipped int
		errs    []error
	)
	for _, sheet := range scannedSheets {
		rows, err := s.records.Rows(sheet)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", sheet, err))
			continue
		}
		for _, rec := range rows {
			in := Input{Sheet: sheet, Record: rec, Today: today, Ledger: ledger}
			batch, ok := s.messagesFor(in, overrides)
			if !ok {
				skipped++
			}
			msgs = append(msgs, batch...)
		}
	}
	return msgs, skipped, errors.Join(errs...)
}

// messagesFor isolates one record: a fault here is logged and the record is
// skipped. ok is false when alerts fired but nobody could be notified.
func (s *Service) messagesFor(in Input, overrides map[string]string) (msgs []domain.Message, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(map[string]any{
				"row_id": in.Record.ID,
				"sheet":  string(in.Sheet),
				"panic":  fmt.Sprintf("%v", r),
				"stack":  string(debug.Stack()),
			}).Error("[AlertScan] Record evaluation failed")
			msgs, ok = nil, true
		}
	}()

	alerts := Evaluate(in)
	if len(alerts) == 0 {
		return nil, true
	}

	recipients := s.resolver.Resolve(in.Sheet, in.Record, overrides)
	if len(recipients) == 0 {
		logger.WithField("row_id", in.Record.ID).Debug("[AlertScan] No recipients for %s row", in.Sheet)
		return nil, false
	}

	for _, a := range alerts {
		body, vars := Compose(a)
		for _, to := range recipients {
			b, v := PrepareForRecipient(a, s.resolver.IsPrivileged(to), body, vars)
			msgs = append(msgs, domain.Message{
				To:        to,
				Body:      b,
				Variables: v,
				Ladder:    a.Ladder,
				Rule:      a.Rule,
				Sheet:     a.Sheet,
				RowID:     in.Record.ID,
			})
		}
	}
	return msgs, true
}

func (s *Service) loadOverrides(ctx context.Context) map[string]string {
	if s.overrides == nil {
		return map[string]string{}
	}
	m, err := s.overrides.LoadAll(ctx)
	if err != nil {
		logger.WithError(err).Warn("[AlertScan] Failed to load recipient overrides")
		return map[string]string{}
	}
	return m
}
