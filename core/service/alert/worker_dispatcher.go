package alert

import (
	"context"
	"sync"
	"time"

	"tracker_worker/core/domain"
	"tracker_worker/core/port/out"
	"tracker_worker/pkg/logger"
	"tracker_worker/pkg/metrics"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"
)

// DefaultDispatchWorkers bounds concurrent gateway calls per scan.
const DefaultDispatchWorkers = 4

// DispatchResult tallies one batch of deliveries.
type DispatchResult struct {
	Sent     int
	Failed   int
	ByLadder map[domain.Ladder]int
}

// Dispatcher fans messages out to the gateway on a bounded worker pool.
// Each send is independent: a failed one never stops the rest.
type Dispatcher struct {
	gateway out.MessageGateway
	events  out.AlertEventPublisher
	metrics *metrics.AlertMetrics
	workers int
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher. events may be nil.
func NewDispatcher(gateway out.MessageGateway, events out.AlertEventPublisher, m *metrics.AlertMetrics, workers int) *Dispatcher {
	if workers <= 0 {
		workers = DefaultDispatchWorkers
	}
	return &Dispatcher{
		gateway: gateway,
		events:  events,
		metrics: m,
		workers: workers,
		log:     logger.Component("alert_dispatcher"),
	}
}

// tally collects outcomes from concurrent workers.
type tally struct {
	mu  sync.Mutex
	res DispatchResult
}

func (t *tally) add(ladder domain.Ladder, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ok {
		t.res.Sent++
		t.res.ByLadder[ladder]++
		return
	}
	t.res.Failed++
}

// sendWorker implements pool.Worker for one message.
type sendWorker struct {
	d     *Dispatcher
	tally *tally
}

// Do implements pool.Worker interface.
func (w *sendWorker) Do(ctx context.Context, msg domain.Message) error {
	w.tally.add(msg.Ladder, w.d.deliver(ctx, msg))
	return nil
}

// Dispatch sends every message and waits for all of them to finish.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []domain.Message) DispatchResult {
	t := &tally{res: DispatchResult{ByLadder: make(map[domain.Ladder]int)}}
	if len(msgs) == 0 {
		return t.res
	}

	workers := d.workers
	if workers > len(msgs) {
		workers = len(msgs)
	}

	wg := pool.New[domain.Message](workers, &sendWorker{d: d, tally: t}).
		WithWorkerChanSize(len(msgs)).
		WithContinueOnError()

	if err := wg.Go(ctx); err != nil {
		// The pool could not start; fall back to sending inline.
		d.log.Error().Err(err).Msg("failed to start dispatch pool")
		for _, m := range msgs {
			t.add(m.Ladder, d.deliver(ctx, m))
		}
		return t.res
	}

	for _, m := range msgs {
		wg.Submit(m)
	}
	if err := wg.Close(ctx); err != nil {
		d.log.Warn().Err(err).Msg("dispatch pool closed with error")
	}

	return t.res
}

func (d *Dispatcher) deliver(ctx context.Context, msg domain.Message) bool {
	start := time.Now()
	ok := d.gateway.Send(ctx, msg.To, msg.Body, msg.Variables)
	d.metrics.ObserveGateway(time.Since(start))
	d.metrics.ObserveSend(string(msg.Ladder), string(msg.Rule), ok)

	if !ok {
		d.log.Warn().
			Str("to", msg.To).
			Str("rule", string(msg.Rule)).
			Str("row_id", msg.RowID).
			Msg("alert not sent")
	}

	if d.events != nil {
		event := &out.AlertEvent{
			RowID:     msg.RowID,
			Sheet:     string(msg.Sheet),
			Ladder:    string(msg.Ladder),
			Rule:      string(msg.Rule),
			To:        msg.To,
			Sent:      ok,
			Timestamp: time.Now().UTC(),
		}
		if err := d.events.PublishAlert(ctx, event); err != nil {
			d.log.Debug().Err(err).Msg("failed to publish alert event")
		}
	}
	return ok
}
