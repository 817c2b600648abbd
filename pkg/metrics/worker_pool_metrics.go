package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DBPoolStats is a snapshot of the Postgres ledger pool.
type DBPoolStats struct {
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	MaxOpenConnections int           `json:"max_open_connections"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
}

// GetDBPoolStats retrieves pool statistics from a sql.DB instance.
func GetDBPoolStats(db *sql.DB) DBPoolStats {
	if db == nil {
		return DBPoolStats{}
	}

	stats := db.Stats()
	return DBPoolStats{
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		MaxOpenConnections: stats.MaxOpenConnections,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}
}

// PoolHealthStatus indicates the health of a connection pool.
type PoolHealthStatus string

const (
	PoolHealthy   PoolHealthStatus = "healthy"
	PoolDegraded  PoolHealthStatus = "degraded"
	PoolUnhealthy PoolHealthStatus = "unhealthy"
)

// PoolHealth represents the health assessment of a pool.
type PoolHealth struct {
	Status      PoolHealthStatus `json:"status"`
	Utilization float64          `json:"utilization"`
	Message     string           `json:"message,omitempty"`
}

// AssessDBPoolHealth evaluates the health of a database pool.
func AssessDBPoolHealth(stats DBPoolStats) PoolHealth {
	if stats.MaxOpenConnections == 0 {
		return PoolHealth{Status: PoolHealthy, Message: "unlimited connections"}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections)

	h := PoolHealth{Status: PoolHealthy, Utilization: utilization}
	switch {
	case utilization >= 0.95:
		h.Status, h.Message = PoolUnhealthy, "pool nearly exhausted"
	case utilization >= 0.80:
		h.Status, h.Message = PoolDegraded, "high pool utilization"
	}

	if stats.WaitCount > 0 && stats.WaitDuration > 5*time.Second && h.Status == PoolHealthy {
		h.Status, h.Message = PoolDegraded, "elevated connection wait times"
	}
	return h
}

// RegisterDBStats exports the pool counters of db under the given name.
func (m *AlertMetrics) RegisterDBStats(name string, db *sql.DB) error {
	if m == nil || db == nil {
		return nil
	}
	return m.Register(collectors.NewDBStatsCollector(db, name))
}
