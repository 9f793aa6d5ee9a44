package goImpersonate

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint8

const (
	// MetricStartSuccess counts successful session starts.
	MetricStartSuccess MetricID = iota
	// MetricStartDenied counts starts rejected for missing permission.
	MetricStartDenied
	// MetricStartTargetMissing counts starts rejected for an absent target.
	MetricStartTargetMissing
	// MetricSessionEnded counts ended sessions, whatever the reason.
	MetricSessionEnded
	// MetricSessionExpired counts sessions ended by the expiry sweeper.
	MetricSessionExpired
	// MetricResolveHit counts intercepted requests matched to a session.
	MetricResolveHit
	// MetricResolveMiss counts intercepted requests with no usable session.
	MetricResolveMiss
	// MetricHeartbeatFailure counts swallowed activity-heartbeat write failures.
	MetricHeartbeatFailure
	// MetricAuditWriteFailure counts swallowed durable activity-audit failures.
	MetricAuditWriteFailure
	// MetricSecurityEvent counts recorded security events.
	MetricSecurityEvent

	metricIDCount
)

var metricNames = [metricIDCount]string{
	"start_success",
	"start_denied",
	"start_target_missing",
	"session_ended",
	"session_expired",
	"resolve_hit",
	"resolve_miss",
	"heartbeat_failure",
	"audit_write_failure",
	"security_event",
}

func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// Metrics holds atomic counters. When disabled, all operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Value returns one counter's current value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// MetricsSnapshot is a point-in-time copy of all counters keyed by name.
type MetricsSnapshot map[string]uint64

// Snapshot returns a deep copy of the current counter values. Returns nil
// when metrics are disabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return nil
	}
	out := make(MetricsSnapshot, metricIDCount)
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id.String()] = m.counters[id].Load()
	}
	return out
}
