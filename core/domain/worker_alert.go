package domain

import "time"

// Ladder groups the escalation rules evaluated for one dataset condition.
type Ladder string

const (
	// LadderKPI escalates Sizing rows as their KPI date approaches or passes.
	LadderKPI Ladder = "kpi_due"
	// LadderSRCreation chases CapPhat rows that still have no SR code.
	LadderSRCreation Ladder = "sr_creation"
	// LadderSRFollowUp follows CapPhat rows after the SR code was issued.
	LadderSRFollowUp Ladder = "sr_followup"
)

// Ladders lists every ladder in evaluation order.
var Ladders = []Ladder{LadderKPI, LadderSRCreation, LadderSRFollowUp}

// RuleKind identifies one rung of a ladder and selects its message.
type RuleKind string

const (
	RuleKPIApproaching   RuleKind = "kpi_approaching"
	RuleKPIOverdue       RuleKind = "kpi_overdue"
	RuleSRCreateToday    RuleKind = "sr_create_today"
	RuleSRCreateDue      RuleKind = "sr_create_due"
	RuleSRCreateLate     RuleKind = "sr_create_late"
	RuleSRDeadlineToday  RuleKind = "sr_deadline_today"
	RuleSRDeadlineIn1Day RuleKind = "sr_deadline_in_1_day"
)

// Alert is a rule that fired for one record during a scan.
type Alert struct {
	Ladder Ladder
	Rule   RuleKind
	Sheet  Sheet
	Record Record

	// Days is the rule's offset: overdue days, days since intake or days left.
	Days int
	// Label is the human status carried into the message ("Muộn 1 ngày", "Đến hạn").
	Label string
	// Reference is an extra date the message quotes, e.g. the SR creation date.
	Reference string
}

// Message is the composed payload for one recipient.
type Message struct {
	To        string            `json:"to"`
	Body      string            `json:"body"`
	Variables map[string]string `json:"variables,omitempty"`
	Ladder    Ladder            `json:"ladder"`
	Rule      RuleKind          `json:"rule"`
	Sheet     Sheet             `json:"sheet"`
	RowID     string            `json:"row_id"`
}

// ScanResult summarises one alert scan.
type ScanResult struct {
	Sent      int            `json:"sent"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	ByLadder  map[Ladder]int `json:"by_ladder"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}
