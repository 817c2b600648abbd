package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"tracker_worker/core/domain"
	"tracker_worker/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRunAfter(t *testing.T) {
	times := []TimeOfDay{{9, 0}, {14, 0}, {16, 30}}
	day := func(d, h, m int) time.Time { return time.Date(2024, 6, d, h, m, 0, 0, time.Local) }

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"afternoon gap", day(10, 15, 0), day(10, 16, 30)},
		{"after last slot", day(10, 17, 0), day(11, 9, 0)},
		{"before first slot", day(10, 6, 0), day(10, 9, 0)},
		{"exactly on a slot moves on", day(10, 14, 0), day(10, 16, 30)},
		{"exactly on last slot", day(10, 16, 30), day(11, 9, 0)},
		{"month rollover", time.Date(2024, 6, 30, 20, 0, 0, 0, time.Local), time.Date(2024, 7, 1, 9, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRunAfter(tt.now, times)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}

	_, err := NextRunAfter(day(10, 0, 0), nil)
	assert.Error(t, err)
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    []TimeOfDay
		wantErr bool
	}{
		{"default", "09:00,14:00,16:30", []TimeOfDay{{9, 0}, {14, 0}, {16, 30}}, false},
		{"unsorted with spaces and dup", " 16:30, 9:00 ,16:30", []TimeOfDay{{9, 0}, {16, 30}}, false},
		{"empty", "", nil, true},
		{"bad hour", "25:00", nil, true},
		{"no colon", "0900", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// flakyScanner panics on its first call and succeeds afterwards.
type flakyScanner struct {
	calls  atomic.Int32
	onCall func(n int32)
}

func (f *flakyScanner) RunScan(ctx context.Context, trigger string) (*domain.ScanResult, error) {
	n := f.calls.Add(1)
	if f.onCall != nil {
		f.onCall(n)
	}
	if n == 1 {
		panic("boom")
	}
	return &domain.ScanResult{Sent: 1}, nil
}

func (f *flakyScanner) Preview(ctx context.Context) ([]domain.Message, error) {
	return nil, nil
}

func TestAlertScheduler_SurvivesPanickingScan(t *testing.T) {
	scanner := &flakyScanner{}
	s := NewAlertScheduler(scanner, nil, time.Millisecond)
	s.clock = clock.NewFixed(time.Date(2024, 6, 10, 15, 0, 0, 0, time.Local))

	var waits []time.Duration
	waitsCh := make(chan time.Duration, 16)
	s.after = func(d time.Duration) <-chan time.Time {
		if s.ctx.Err() != nil {
			return make(chan time.Time)
		}
		waitsCh <- d
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	scanner.onCall = func(n int32) {
		if n == 3 {
			s.cancel()
		}
	}

	s.Start()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	close(waitsCh)
	for d := range waitsCh {
		waits = append(waits, d)
	}

	assert.GreaterOrEqual(t, scanner.calls.Load(), int32(3))
	require.NotEmpty(t, waits)
	assert.Equal(t, 90*time.Minute, waits[0])
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.LastRun().IsZero())
}

func TestAlertScheduler_NextRunWhileWaiting(t *testing.T) {
	s := NewAlertScheduler(&flakyScanner{}, []TimeOfDay{{9, 0}}, time.Second)
	s.clock = clock.NewFixed(time.Date(2024, 6, 10, 17, 0, 0, 0, time.Local))

	armed := make(chan struct{})
	s.after = func(time.Duration) <-chan time.Time {
		close(armed)
		return make(chan time.Time)
	}

	s.Start()
	<-armed

	next, ok := s.NextRun()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 11, 9, 0, 0, 0, time.Local), next)
	assert.Equal(t, StateWaiting, s.State())

	s.Stop()
	_, ok = s.NextRun()
	assert.False(t, ok)
}

func TestAlertScheduler_StopWithoutStart(t *testing.T) {
	s := NewAlertScheduler(&flakyScanner{}, nil, 0)
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked")
	}
}
