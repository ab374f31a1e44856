// Package metrics defines and registers all custom Prometheus metrics for the
// coursehub API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto; HTTP request metrics come from the
// echoprometheus middleware wired in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coursehub"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "invalid" or "conflict"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

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

// ── Enrollment metrics ────────────────────────────────────────────────────────

// EnrollmentsTotal counts enroll calls.
// Label:
//   - result: "success", "duplicate", "in_progress", "not_found" or "error"
var EnrollmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Total number of enrollment attempts, by result.",
	},
	[]string{"result"},
)

// EnrollmentDuration measures an enroll call from lookup to the second write.
var EnrollmentDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "enrollment_duration_seconds",
		Help:      "Duration of enrollment processing.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// EdgeRepairsTotal counts half-written enrollment edges that were completed.
// Label:
//   - side: the half that was added, "user" or "course"
var EdgeRepairsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollment_edge_repairs_total",
		Help:      "Total number of enrollment edges made symmetric after a partial write.",
	},
	[]string{"side"},
)

// ReconcileQueueDepth tracks pending repair jobs per dispatcher worker.
var ReconcileQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reconcile_queue_depth",
		Help:      "Current number of repair jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// CatalogCacheTotal counts catalog cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var CatalogCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_cache_total",
		Help:      "Total number of catalog cache lookups, labelled by result.",
	},
	[]string{"result"},
)
