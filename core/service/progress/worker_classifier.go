// Package progress derives the Tiến độ label of Sizing rows from their KPI date.
package progress

import (
	"time"

	"tracker_worker/core/domain"
	"tracker_worker/pkg/dateutil"
)

// LookaheadDays is the widest business-day window that still gets a label.
const LookaheadDays = 3

// Classify maps a KPI date string to a progress label relative to today.
// Unparseable dates and dates beyond the lookahead window yield ProgressNone.
func Classify(target string, today time.Time) domain.ProgressLabel {
	kpi, ok := dateutil.ParseDate(target)
	if !ok {
		return domain.ProgressNone
	}
	today = dateutil.Normalize(today)

	if kpi.Before(today) {
		return domain.ProgressOverdue
	}

	switch dateutil.BusinessDaysBetween(today, kpi) {
	case 0:
		return domain.ProgressDueToday
	case 1:
		return domain.ProgressDueIn1
	case 2:
		return domain.ProgressDueIn2
	case LookaheadDays:
		return domain.ProgressDueIn3
	default:
		return domain.ProgressNone
	}
}

// ClassifyRecord classifies a Sizing record by its KPI field.
func ClassifyRecord(rec domain.Record, today time.Time) domain.ProgressLabel {
	return Classify(rec.Get(domain.FieldSizingKPI), today)
}

// OverdueDays returns the calendar days elapsed since the KPI date and
// whether the KPI date parsed. The value is negative before the deadline.
func OverdueDays(target string, today time.Time) (int, bool) {
	kpi, ok := dateutil.ParseDate(target)
	if !ok {
		return 0, false
	}
	return dateutil.CalendarDaysBetween(kpi, dateutil.Normalize(today)), true
}

// DeriveKPI returns the KPI date for a request submitted on requested:
// two business days later, formatted for display.
func DeriveKPI(requested string) (string, bool) {
	d, ok := dateutil.ParseDate(requested)
	if !ok {
		return "", false
	}
	return dateutil.Format(dateutil.AddBusinessDays(d, KPIBusinessDays)), true
}

// KPIBusinessDays is the turnaround committed for a Sizing request.
const KPIBusinessDays = 2
