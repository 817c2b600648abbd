package alert

import (
	"context"
	"strings"
	"sync"

	"tracker_worker/core/port/out"
	"tracker_worker/pkg/clock"
	"tracker_worker/pkg/dateutil"
	"tracker_worker/pkg/logger"
	"tracker_worker/pkg/metrics"
)

// Ledger records the date each CapPhat row first received an SR code.
// The read-check-write sequence runs under one mutex so overlapping
// callers can never store two different dates for a row.
type Ledger struct {
	mu      sync.Mutex
	repo    out.LedgerRepository
	clock   clock.Clock
	metrics *metrics.AlertMetrics
}

// NewLedger creates a Ledger over repo.
func NewLedger(repo out.LedgerRepository, c clock.Clock, m *metrics.AlertMetrics) *Ledger {
	if c == nil {
		c = clock.System{}
	}
	return &Ledger{repo: repo, clock: c, metrics: m}
}

// RecordMilestone is the SR-code edit hook. It stores today's date for rowID
// only when the field goes from blank to non-blank and no date exists yet.
// It reports whether a date was written.
func (l *Ledger) RecordMilestone(ctx context.Context, rowID, previous, next string) (bool, error) {
	if rowID == "" || strings.TrimSpace(previous) != "" || strings.TrimSpace(next) == "" {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	date := dateutil.Format(dateutil.Today(l.clock.Now()))
	written, err := l.repo.PutIfAbsent(ctx, rowID, date)
	if err != nil {
		logger.WithError(err).WithField("row_id", rowID).Warn("[Ledger] Failed to persist SR creation date")
		return false, err
	}
	if written {
		l.metrics.IncLedgerWrite()
		logger.WithField("row_id", rowID).Info("[Ledger] SR creation date recorded: %s", date)
	}
	return written, nil
}

// Snapshot returns every recorded date. A failed read yields an empty map.
func (l *Ledger) Snapshot(ctx context.Context) map[string]string {
	entries, err := l.repo.LoadAll(ctx)
	if err != nil {
		logger.WithError(err).Warn("[Ledger] Failed to load SR creation dates")
		return map[string]string{}
	}
	if entries == nil {
		return map[string]string{}
	}
	return entries
}
