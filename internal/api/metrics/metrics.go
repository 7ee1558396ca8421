// Package metrics defines the custom Prometheus metrics of the parcel tracker.
// It is the single source of truth for metric names, labels and help strings.
//
// All metrics register with the default registry on import, which is the one
// served on /metrics by echoprometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parcel_tracker"

// ── Reconciliation metrics ───────────────────────────────────────────────────

// ReconcilePassesTotal counts passes by how they ended.
// Label:
//   - result: "ok", "error" or "skipped" (another pass held the lock)
var ReconcilePassesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_passes_total",
		Help:      "Total number of progress reconciliation passes, by result.",
	},
	[]string{"result"},
)

// ReconcileRecordsTotal counts per-parcel outcomes across all passes.
// Label:
//   - outcome: "updated", "skipped" or "error"
var ReconcileRecordsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_records_total",
		Help:      "Total number of parcels examined by reconciliation, by outcome.",
	},
	[]string{"outcome"},
)

// ReconcileDuration measures wall time of one completed pass.
var ReconcileDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_duration_seconds",
		Help:      "Wall-clock duration of a reconciliation pass.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Notification metrics ─────────────────────────────────────────────────────

// NotifyQueueDepth tracks pending updates per dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var NotifyQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notify_queue_depth",
		Help:      "Current number of progress updates pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotifyDroppedTotal counts updates discarded because a worker was full.
var NotifyDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notify_dropped_total",
		Help:      "Total number of progress updates dropped on a full dispatcher queue.",
	},
)

// NotifyErrorsTotal counts failed publishes.
var NotifyErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notify_errors_total",
		Help:      "Total number of progress updates that failed to publish.",
	},
)

// ── Parcel metrics ───────────────────────────────────────────────────────────

// ParcelsCreatedTotal counts parcels created through the API.
var ParcelsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parcels_created_total",
		Help:      "Total number of parcels created.",
	},
)

// ObservePass records the outcome of one reconciliation pass.
func ObservePass(updated, skipped, errors int, d time.Duration) {
	ReconcilePassesTotal.WithLabelValues("ok").Inc()
	ReconcileRecordsTotal.WithLabelValues("updated").Add(float64(updated))
	ReconcileRecordsTotal.WithLabelValues("skipped").Add(float64(skipped))
	ReconcileRecordsTotal.WithLabelValues("error").Add(float64(errors))
	ReconcileDuration.Observe(d.Seconds())
}

// WorkerLabel formats a worker index for NotifyQueueDepth.
func WorkerLabel(id int) string {
	return strconv.Itoa(id)
}
