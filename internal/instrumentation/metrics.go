// Package instrumentation wires permkit's decision pipeline to
// Prometheus metrics and OpenTelemetry tracing. Both are optional: an
// Enforcer built without instrumentation runs the same decision path
// with no-op hooks.
package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds permkit's Prometheus collectors. The Enforcer records
// DecisionsTotal and EnforceDuration on every Enforce call; nothing in
// permkit sets RoleGraphNodes or PolicyRuleCount.
type Metrics struct {
	DecisionsTotal  *prometheus.CounterVec
	EnforceDuration *prometheus.HistogramVec
	RoleGraphNodes  prometheus.Gauge
	PolicyRuleCount *prometheus.GaugeVec
}

// NewMetrics registers permkit's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "permkit",
				Name:      "decisions_total",
				Help:      "Total enforce() decisions, partitioned by outcome",
			},
			[]string{"result"}, // result=allow/deny/error
		),
		EnforceDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "permkit",
				Name:      "enforce_duration_seconds",
				Help:      "Wall time of a single enforce() call",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		RoleGraphNodes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "permkit",
				Name:      "role_graph_nodes",
				Help:      "Number of roles currently tracked by the role manager",
			},
		),
		PolicyRuleCount: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "permkit",
				Name:      "policy_rule_count",
				Help:      "Number of rules currently stored per (section, ptype)",
			},
			[]string{"section", "ptype"},
		),
	}
}
