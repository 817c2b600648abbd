package alert

import (
	"fmt"
	"time"

	"tracker_worker/core/domain"
	"tracker_worker/core/service/progress"
	"tracker_worker/pkg/dateutil"
)

// SRFollowUpDays is the calendar-day deadline counted from the SR creation date.
const SRFollowUpDays = 2

// Input is everything a rule may look at for one record.
type Input struct {
	Sheet  domain.Sheet
	Record domain.Record
	Today  time.Time
	// Ledger maps row_id to the SR creation date.
	Ledger map[string]string
}

// Rule is one rung of an escalation ladder. A rule fires when offset
// succeeds and the resulting day count is one of Days.
type Rule struct {
	Ladder domain.Ladder
	Kind   domain.RuleKind
	Sheet  domain.Sheet
	Days   []int

	offset func(in Input) (int, bool)
	label  func(days int) string
	ref    func(in Input) string
}

// Fire evaluates the rule against in.
func (r Rule) Fire(in Input) (domain.Alert, bool) {
	if in.Sheet != r.Sheet {
		return domain.Alert{}, false
	}
	days, ok := r.offset(in)
	if !ok || !contains(r.Days, days) {
		return domain.Alert{}, false
	}

	a := domain.Alert{
		Ladder: r.Ladder,
		Rule:   r.Kind,
		Sheet:  in.Sheet,
		Record: in.Record,
		Days:   days,
	}
	if r.label != nil {
		a.Label = r.label(days)
	}
	if r.ref != nil {
		a.Reference = r.ref(in)
	}
	return a, true
}

// Rules is the fixed escalation table, in evaluation order.
var Rules = []Rule{
	// Ladder A: KPI due on Sizing.
	{
		Ladder: domain.LadderKPI, Kind: domain.RuleKPIApproaching, Sheet: domain.SheetSizing,
		Days: []int{0, 1}, offset: kpiBusinessDaysLeft, label: progressLabel,
	},
	{
		Ladder: domain.LadderKPI, Kind: domain.RuleKPIOverdue, Sheet: domain.SheetSizing,
		Days: []int{1, 2}, offset: kpiDaysOverdue, label: lateLabel(0),
	},

	// Ladder B: SR code not yet created on CapPhat.
	{
		Ladder: domain.LadderSRCreation, Kind: domain.RuleSRCreateToday, Sheet: domain.SheetCapPhat,
		Days: []int{0}, offset: daysSinceIntake,
	},
	{
		Ladder: domain.LadderSRCreation, Kind: domain.RuleSRCreateDue, Sheet: domain.SheetCapPhat,
		Days: []int{1}, offset: daysSinceIntake,
	},
	{
		Ladder: domain.LadderSRCreation, Kind: domain.RuleSRCreateLate, Sheet: domain.SheetCapPhat,
		Days: []int{2, 3}, offset: daysSinceIntake, label: lateLabel(1),
	},

	// Ladder C: follow-up after the SR code was created.
	{
		Ladder: domain.LadderSRFollowUp, Kind: domain.RuleSRDeadlineToday, Sheet: domain.SheetCapPhat,
		Days: []int{0}, offset: daysUntilSRDeadline, label: fixedLabel(domain.ProgressDueToday), ref: ledgerDate,
	},
	{
		Ladder: domain.LadderSRFollowUp, Kind: domain.RuleSRDeadlineIn1Day, Sheet: domain.SheetCapPhat,
		Days: []int{1}, offset: daysUntilSRDeadline, label: fixedLabel(domain.ProgressDueIn1), ref: ledgerDate,
	},
}

// Evaluate returns every alert that fires for in, in table order.
// Each rule is checked independently of the others.
func Evaluate(in Input) []domain.Alert {
	var alerts []domain.Alert
	for _, r := range Rules {
		if a, ok := r.Fire(in); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

var labelDays = map[domain.ProgressLabel]int{
	domain.ProgressDueToday: 0,
	domain.ProgressDueIn1:   1,
	domain.ProgressDueIn2:   2,
	domain.ProgressDueIn3:   3,
}

// kpiBusinessDaysLeft maps the progress label to its business-day offset.
// Overdue and unclassified rows do not take part.
func kpiBusinessDaysLeft(in Input) (int, bool) {
	d, ok := labelDays[progress.ClassifyRecord(in.Record, in.Today)]
	return d, ok
}

func kpiDaysOverdue(in Input) (int, bool) {
	return progress.OverdueDays(in.Record.Get(domain.FieldSizingKPI), in.Today)
}

func daysSinceIntake(in Input) (int, bool) {
	if in.Record.Get(domain.FieldCapPhatSRCode) != "" {
		return 0, false
	}
	received, ok := dateutil.ParseDate(in.Record.Get(domain.FieldCapPhatReceived))
	if !ok {
		return 0, false
	}
	return dateutil.CalendarDaysBetween(received, in.Today), true
}

func daysUntilSRDeadline(in Input) (int, bool) {
	if in.Record.Get(domain.FieldCapPhatSRCode) == "" || in.Record.ID == "" {
		return 0, false
	}
	created, ok := dateutil.ParseDate(in.Ledger[in.Record.ID])
	if !ok {
		return 0, false
	}
	deadline := created.AddDate(0, 0, SRFollowUpDays)
	return dateutil.CalendarDaysBetween(in.Today, deadline), true
}

func ledgerDate(in Input) string {
	return in.Ledger[in.Record.ID]
}

func progressLabel(days int) string {
	for label, d := range labelDays {
		if d == days {
			return label.String()
		}
	}
	return ""
}

func fixedLabel(l domain.ProgressLabel) func(int) string {
	return func(int) string { return l.String() }
}

// lateLabel renders "Muộn N ngày" where N is days minus grace.
func lateLabel(grace int) func(int) string {
	return func(days int) string {
		return fmt.Sprintf("Muộn %d ngày", days-grace)
	}
}

func contains(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
