package alert

import (
	"testing"
	"time"

	"tracker_worker/core/domain"

	"github.com/stretchr/testify/assert"
)

type firedRule struct {
	Rule      domain.RuleKind
	Label     string
	Reference string
}

func fired(alerts []domain.Alert) []firedRule {
	var out []firedRule
	for _, a := range alerts {
		out = append(out, firedRule{Rule: a.Rule, Label: a.Label, Reference: a.Reference})
	}
	return out
}

func TestEvaluate_KPILadder(t *testing.T) {
	monday := time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)
	saturday := time.Date(2024, 6, 15, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		today time.Time
		kpi   string
		want  []firedRule
	}{
		{"due today", monday, "10/06/2024", []firedRule{{Rule: domain.RuleKPIApproaching, Label: "Đến hạn"}}},
		{"due tomorrow", monday, "11/06/2024", []firedRule{{Rule: domain.RuleKPIApproaching, Label: "Còn 1 ngày"}}},
		{"two business days out", monday, "12/06/2024", nil},
		{"one day late", monday, "09/06/2024", []firedRule{{Rule: domain.RuleKPIOverdue, Label: "Muộn 1 ngày"}}},
		{"two days late", monday, "08/06/2024", []firedRule{{Rule: domain.RuleKPIOverdue, Label: "Muộn 2 ngày"}}},
		{"three days late is quiet", monday, "07/06/2024", nil},
		{"no kpi", monday, "", nil},
		{"weekend late count uses calendar days", saturday, "14/06/2024", []firedRule{{Rule: domain.RuleKPIOverdue, Label: "Muộn 1 ngày"}}},
		{"weekend lookahead uses business days", saturday, "17/06/2024", []firedRule{{Rule: domain.RuleKPIApproaching, Label: "Còn 1 ngày"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.NewRecord("s1", domain.SheetSizing.Columns())
			rec.Fields[domain.FieldSizingKPI] = tt.kpi
			got := Evaluate(Input{Sheet: domain.SheetSizing, Record: rec, Today: tt.today})
			assert.Equal(t, tt.want, fired(got))
		})
	}
}

func TestEvaluate_SRLadders(t *testing.T) {
	today := time.Date(2024, 6, 10, 14, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		received string
		srCode   string
		ledger   map[string]string
		want     []firedRule
	}{
		{"received today", "10/06/2024", "", nil, []firedRule{{Rule: domain.RuleSRCreateToday}}},
		{"received yesterday", "09/06/2024", "", nil, []firedRule{{Rule: domain.RuleSRCreateDue}}},
		{"received two days ago", "08/06/2024", "", nil, []firedRule{{Rule: domain.RuleSRCreateLate, Label: "Muộn 1 ngày"}}},
		{"received three days ago", "07/06/2024", "", nil, []firedRule{{Rule: domain.RuleSRCreateLate, Label: "Muộn 2 ngày"}}},
		{"received four days ago", "06/06/2024", "", nil, nil},
		{"received in the future", "11/06/2024", "", nil, nil},
		{"unparseable intake", "tomorrow", "", nil, nil},
		{"sr code set without ledger entry", "10/06/2024", "SR-1", nil, nil},
		{
			name: "sr deadline today", received: "05/06/2024", srCode: "SR-1",
			ledger: map[string]string{"c1": "08/06/2024"},
			want:   []firedRule{{Rule: domain.RuleSRDeadlineToday, Label: "Đến hạn", Reference: "08/06/2024"}},
		},
		{
			name: "sr deadline tomorrow", received: "05/06/2024", srCode: "SR-1",
			ledger: map[string]string{"c1": "09/06/2024"},
			want:   []firedRule{{Rule: domain.RuleSRDeadlineIn1Day, Label: "Còn 1 ngày", Reference: "09/06/2024"}},
		},
		{
			name: "sr created today is two days out", received: "05/06/2024", srCode: "SR-1",
			ledger: map[string]string{"c1": "10/06/2024"},
		},
		{
			name: "sr deadline passed", received: "01/06/2024", srCode: "SR-1",
			ledger: map[string]string{"c1": "07/06/2024"},
		},
		{
			name: "ledger entry for cleared sr code is ignored", received: "07/06/2024", srCode: "",
			ledger: map[string]string{"c1": "08/06/2024"},
			want:   []firedRule{{Rule: domain.RuleSRCreateLate, Label: "Muộn 2 ngày"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.NewRecord("c1", domain.SheetCapPhat.Columns())
			rec.Fields[domain.FieldCapPhatReceived] = tt.received
			rec.Fields[domain.FieldCapPhatSRCode] = tt.srCode
			got := Evaluate(Input{Sheet: domain.SheetCapPhat, Record: rec, Today: today, Ledger: tt.ledger})
			assert.Equal(t, tt.want, fired(got))
		})
	}
}

func TestEvaluate_UnscannedSheet(t *testing.T) {
	rec := domain.NewRecord("x", domain.SheetChiTiet.Columns())
	got := Evaluate(Input{Sheet: domain.SheetChiTiet, Record: rec, Today: time.Now()})
	assert.Empty(t, got)
}

func TestRules_LadderMembership(t *testing.T) {
	perLadder := map[domain.Ladder]int{}
	for _, r := range Rules {
		perLadder[r.Ladder]++
		assert.NotEmpty(t, r.Days, r.Kind)
	}
	assert.Equal(t, 2, perLadder[domain.LadderKPI])
	assert.Equal(t, 3, perLadder[domain.LadderSRCreation])
	assert.Equal(t, 2, perLadder[domain.LadderSRFollowUp])
}
