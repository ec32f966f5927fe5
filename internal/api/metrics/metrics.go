// Package metrics defines the custom Prometheus metrics of the CRM. Only the
// API layer and cmd/ record them; core services stay metric-free.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "altracrm"

// ── Records ──────────────────────────────────────────────────────────────────

// RecordMutationsTotal counts record writes.
// Labels:
//   - op: "save", "delete" or "apply_order"
//   - result: "ok" or "error"
var RecordMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_mutations_total",
		Help:      "Total number of record mutations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ExportsTotal counts exports by kind ("csv" or "email").
var ExportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Total number of record exports, by kind.",
	},
	[]string{"kind"},
)

// ExportedRecordsTotal counts rows included in exports.
var ExportedRecordsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exported_records_total",
		Help:      "Total number of records included in exports.",
	},
)

// ── Auth ─────────────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Assistant ────────────────────────────────────────────────────────────────

// AssistantRequestsTotal counts assistant calls.
// Labels:
//   - op: "analyze", "briefing" or "parse_order"
//   - result: "ok" or "fallback"
var AssistantRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assistant_requests_total",
		Help:      "Total number of assistant requests, by operation and result.",
	},
	[]string{"op", "result"},
)

// AssistantDuration measures assistant round trips.
var AssistantDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assistant_duration_seconds",
		Help:      "Duration of assistant requests including the model call.",
		Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
	},
	[]string{"op"},
)

// ── Realtime ─────────────────────────────────────────────────────────────────

// RealtimeNoticesTotal counts change notices by source ("remote" or "local").
var RealtimeNoticesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_notices_total",
		Help:      "Total number of change notices fanned out, by source.",
	},
	[]string{"source"},
)

// RealtimeDroppedTotal counts notices a slow listener missed.
var RealtimeDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_dropped_total",
		Help:      "Total number of notices dropped because a listener buffer was full.",
	},
)

// RealtimeListeners tracks open event streams.
var RealtimeListeners = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_listeners",
		Help:      "Current number of connected event stream listeners.",
	},
)

// ── Vault ────────────────────────────────────────────────────────────────────

// VaultOperationsTotal counts backups and restores.
// Labels:
//   - op: "backup" or "restore"
//   - result: "ok", "warning" or "error"
var VaultOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vault_operations_total",
		Help:      "Total number of backup and restore operations, by result.",
	},
	[]string{"op", "result"},
)

// ── Storage ──────────────────────────────────────────────────────────────────

// RemoteMode is 1 when the process runs against the remote store, else 0.
var RemoteMode = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "remote_mode",
		Help:      "1 when the hosted store is active (online), 0 in local mode.",
	},
)

// Result maps an error to the "ok"/"error" label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
