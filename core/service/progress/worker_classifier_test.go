package progress

import (
	"testing"
	"time"

	"tracker_worker/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	// Monday
	today := time.Date(2024, 6, 10, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name   string
		target string
		want   domain.ProgressLabel
	}{
		{"due today", "10/06/2024", domain.ProgressDueToday},
		{"tuesday is one day out", "11/06/2024", domain.ProgressDueIn1},
		{"wednesday is two days out", "12/06/2024", domain.ProgressDueIn2},
		{"thursday is three days out", "13/06/2024", domain.ProgressDueIn3},
		{"friday is beyond the window", "14/06/2024", domain.ProgressNone},
		{"past friday is overdue", "07/06/2024", domain.ProgressOverdue},
		{"next monday is five business days out", "17/06/2024", domain.ProgressNone},
		{"empty", "", domain.ProgressNone},
		{"garbage", "soon", domain.ProgressNone},
		{"iso input", "2024-06-11", domain.ProgressDueIn1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.target, today))
		})
	}
}

func TestClassify_WeekendToday(t *testing.T) {
	saturday := time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local)

	assert.Equal(t, domain.ProgressDueToday, Classify("15/06/2024", saturday))
	// Sunday adds no business day.
	assert.Equal(t, domain.ProgressDueToday, Classify("16/06/2024", saturday))
	assert.Equal(t, domain.ProgressDueIn1, Classify("17/06/2024", saturday))
}

func TestClassify_Stable(t *testing.T) {
	morning := time.Date(2024, 6, 10, 0, 0, 1, 0, time.Local)
	evening := time.Date(2024, 6, 10, 23, 59, 59, 0, time.Local)

	for _, target := range []string{"07/06/2024", "10/06/2024", "12/06/2024", "20/06/2024"} {
		assert.Equal(t, Classify(target, morning), Classify(target, evening), target)
	}
}

func TestOverdueDays(t *testing.T) {
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name   string
		target string
		want   int
		wantOK bool
	}{
		{"yesterday", "09/06/2024", 1, true},
		{"two days ago", "08/06/2024", 2, true},
		{"today", "10/06/2024", 0, true},
		{"future", "12/06/2024", -2, true},
		{"invalid", "x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OverdueDays(tt.target, today)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveKPI(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		want      string
		wantOK    bool
	}{
		{"monday request", "10/06/2024", "12/06/2024", true},
		{"thursday request skips weekend", "13/06/2024", "17/06/2024", true},
		{"friday request", "14/06/2024", "18/06/2024", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeriveKPI(tt.requested)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
