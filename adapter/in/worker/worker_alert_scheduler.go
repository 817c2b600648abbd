package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"tracker_worker/core/port/in"
	"tracker_worker/core/service/alert"
	"tracker_worker/pkg/clock"
	"tracker_worker/pkg/logger"
)

// =============================================================================
// AlertScheduler - runs the alert scan at fixed times of day
// =============================================================================
//
// Missed slots are not caught up: each run only looks at current state.

// TimeOfDay is a wall-clock run time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// DefaultSchedule is used when no run times are configured.
var DefaultSchedule = []TimeOfDay{{9, 0}, {14, 0}, {16, 30}}

// DefaultRetryDelay is the pause after the schedule itself fails.
const DefaultRetryDelay = time.Minute

// ParseSchedule parses a comma-separated list of HH:MM times and returns
// them sorted and deduplicated.
func ParseSchedule(value string) ([]TimeOfDay, error) {
	seen := make(map[TimeOfDay]struct{})
	var times []TimeOfDay
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hh, mm, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid run time %q", part)
		}
		h, errH := strconv.Atoi(hh)
		m, errM := strconv.Atoi(mm)
		if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
			return nil, fmt.Errorf("invalid run time %q", part)
		}
		t := TimeOfDay{h, m}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		times = append(times, t)
	}
	if len(times) == 0 {
		return nil, errors.New("schedule has no run times")
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].Hour != times[j].Hour {
			return times[i].Hour < times[j].Hour
		}
		return times[i].Minute < times[j].Minute
	})
	return times, nil
}

// NextRunAfter returns the earliest configured time strictly after now, or
// the first one tomorrow when none remains today. times must be sorted.
func NextRunAfter(now time.Time, times []TimeOfDay) (time.Time, error) {
	if len(times) == 0 {
		return time.Time{}, errors.New("schedule has no run times")
	}
	y, mo, d := now.Date()
	for _, t := range times {
		candidate := time.Date(y, mo, d, t.Hour, t.Minute, 0, 0, now.Location())
		if candidate.After(now) {
			return candidate, nil
		}
	}
	ty, tmo, td := now.AddDate(0, 0, 1).Date()
	return time.Date(ty, tmo, td, times[0].Hour, times[0].Minute, 0, 0, now.Location()), nil
}

// SchedulerState is the loop's current phase.
type SchedulerState string

const (
	StateIdle    SchedulerState = "idle"
	StateWaiting SchedulerState = "waiting"
)

// AlertScheduler triggers alert scans at fixed daily times until stopped.
type AlertScheduler struct {
	scanner    in.AlertService
	times      []TimeOfDay
	clock      clock.Clock
	retryDelay time.Duration
	after      func(time.Duration) <-chan time.Time

	mu      sync.RWMutex
	state   SchedulerState
	nextRun time.Time
	lastRun time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewAlertScheduler creates a new alert scheduler. An empty times list uses
// DefaultSchedule.
func NewAlertScheduler(scanner in.AlertService, times []TimeOfDay, retryDelay time.Duration) *AlertScheduler {
	if len(times) == 0 {
		times = DefaultSchedule
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AlertScheduler{
		scanner:    scanner,
		times:      times,
		clock:      clock.System{},
		retryDelay: retryDelay,
		after:      time.After,
		state:      StateIdle,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Start starts the scheduler loop.
func (s *AlertScheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	logger.Info("[AlertScheduler] Starting with run times %v", s.times)
	go s.run()
}

// Stop stops the scheduler loop. A scan already running finishes on its own.
func (s *AlertScheduler) Stop() {
	logger.Info("[AlertScheduler] Stopping...")
	s.cancel()

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if started {
		<-s.done
	}
}

// State returns the current phase.
func (s *AlertScheduler) State() SchedulerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// NextRun returns the armed run time, if any.
func (s *AlertScheduler) NextRun() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRun, s.state == StateWaiting
}

// LastRun returns when the last scheduled scan started.
func (s *AlertScheduler) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Times returns the configured run times.
func (s *AlertScheduler) Times() []TimeOfDay {
	out := make([]TimeOfDay, len(s.times))
	copy(out, s.times)
	return out
}

// run is the main loop. It only returns when the scheduler is stopped.
func (s *AlertScheduler) run() {
	defer close(s.done)

	for {
		now := s.clock.Now()
		wait := s.retryDelay
		next, err := s.computeNext(now)
		if err != nil {
			logger.WithError(err).Error("[AlertScheduler] Failed to compute next run, retrying in %v", s.retryDelay)
		} else {
			wait = next.Sub(now)
			if wait < 0 {
				wait = 0
			}
			s.setWaiting(next)
		}

		select {
		case <-s.ctx.Done():
			s.setIdle()
			logger.Info("[AlertScheduler] Stopped")
			return
		case <-s.after(wait):
		}

		s.setIdle()
		if err == nil {
			s.runScan()
		}
	}
}

// computeNext converts a panic in the schedule computation into an error.
func (s *AlertScheduler) computeNext(now time.Time) (next time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("schedule panic: %v", r)
		}
	}()
	return NextRunAfter(now, s.times)
}

// runScan runs one scan and absorbs any failure inside it.
func (s *AlertScheduler) runScan() {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(map[string]any{
				"panic": fmt.Sprintf("%v", r),
				"stack": string(debug.Stack()),
			}).Error("[AlertScheduler] Scan panicked")
		}
	}()

	s.mu.Lock()
	s.lastRun = s.clock.Now()
	s.mu.Unlock()

	ctx := context.WithoutCancel(s.ctx)
	res, err := s.scanner.RunScan(ctx, alert.TriggerScheduled)
	if err != nil {
		logger.WithError(err).Warn("[AlertScheduler] Scan finished with errors")
	}
	if res != nil {
		logger.Info("[AlertScheduler] Scheduled scan sent %d alerts", res.Sent)
	}
}

func (s *AlertScheduler) setWaiting(next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateWaiting
	s.nextRun = next
}

func (s *AlertScheduler) setIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
}
