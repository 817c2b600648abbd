// Package metrics exposes Prometheus collectors for the alert engine.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "tracker"

// AlertMetrics holds the alert engine collectors on a private registry.
// A nil *AlertMetrics is valid and records nothing.
type AlertMetrics struct {
	registry *prometheus.Registry

	messagesSent   *prometheus.CounterVec
	messagesFailed *prometheus.CounterVec
	scans          *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	ledgerWrites   prometheus.Counter
	gatewayLatency prometheus.Histogram
}

// NewAlertMetrics creates and registers every collector.
func NewAlertMetrics() (*AlertMetrics, error) {
	m := &AlertMetrics{
		registry: prometheus.NewRegistry(),
		messagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alert_messages_sent_total",
				Help:      "Alert messages accepted by the gateway",
			},
			[]string{"ladder", "rule"},
		),
		messagesFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alert_messages_failed_total",
				Help:      "Alert messages the gateway did not accept",
			},
			[]string{"ladder", "rule"},
		),
		scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alert_scans_total",
				Help:      "Completed alert scans",
			},
			[]string{"trigger", "status"},
		),
		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "alert_scan_duration_seconds",
				Help:      "Duration of one alert scan",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"trigger"},
		),
		ledgerWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sr_ledger_writes_total",
				Help:      "SR creation dates recorded",
			},
		),
		gatewayLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_send_duration_seconds",
				Help:      "Latency of outbound gateway calls",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	all := []prometheus.Collector{
		m.messagesSent, m.messagesFailed, m.scans, m.scanDuration, m.ledgerWrites, m.gatewayLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range all {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// Registry returns the registry to expose over HTTP.
func (m *AlertMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Register adds an extra collector, e.g. database pool gauges.
func (m *AlertMetrics) Register(c prometheus.Collector) error {
	if m == nil {
		return nil
	}
	return m.registry.Register(c)
}

// ObserveSend counts one delivery attempt.
func (m *AlertMetrics) ObserveSend(ladder, rule string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.messagesSent.WithLabelValues(ladder, rule).Inc()
		return
	}
	m.messagesFailed.WithLabelValues(ladder, rule).Inc()
}

// ObserveScan records a finished scan.
func (m *AlertMetrics) ObserveScan(trigger string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.scans.WithLabelValues(trigger, status).Inc()
	m.scanDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

// IncLedgerWrite counts one SR creation date written.
func (m *AlertMetrics) IncLedgerWrite() {
	if m == nil {
		return
	}
	m.ledgerWrites.Inc()
}

// ObserveGateway records the latency of one gateway call.
func (m *AlertMetrics) ObserveGateway(d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.Observe(d.Seconds())
}
