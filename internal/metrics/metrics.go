// Package metrics holds the Prometheus collectors of the import engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gameplan",
		Subsystem: "validation",
		Name:      "issues_total",
		Help:      "Validation issues emitted, broken down by template and severity.",
	}, []string{"template", "severity"})

	validationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gameplan",
		Subsystem: "validation",
		Name:      "duration_seconds",
		Help:      "Wall time of a full validation run.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"template"})

	crossrefTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gameplan",
		Subsystem: "validation",
		Name:      "crossref_timeouts_total",
		Help:      "Cross-reference queries that exceeded their deadline and degraded to a warning.",
	})

	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gameplan",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Rows committed by the importer, broken down by template and outcome.",
	}, []string{"template", "outcome"})

	entitiesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gameplan",
		Subsystem: "import",
		Name:      "entities_created_total",
		Help:      "Reference entities created during entity resolution, by kind.",
	}, []string{"kind"})

	masterdataLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gameplan",
		Subsystem: "masterdata",
		Name:      "lookups_total",
		Help:      "Master data lookups broken down by kind and where they were answered.",
	}, []string{"kind", "result"})

	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gameplan",
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Session status transitions, by target status.",
	}, []string{"status"})
)

// RecordIssue counts one validation issue.
func RecordIssue(template, severity string) {
	validationIssues.WithLabelValues(template, severity).Inc()
}

// ObserveValidation records how long a validation run took.
func ObserveValidation(template string, d time.Duration) {
	validationDuration.WithLabelValues(template).Observe(d.Seconds())
}

// RecordCrossrefTimeout counts a degraded cross-reference check.
func RecordCrossrefTimeout() { crossrefTimeouts.Inc() }

// RecordImportRow counts one committed or failed row.
func RecordImportRow(template string, ok bool) {
	outcome := "failed"
	if ok {
		outcome = "successful"
	}
	importRows.WithLabelValues(template, outcome).Inc()
}

// RecordEntityCreated counts one entity created by the resolver.
func RecordEntityCreated(kind string) {
	entitiesCreated.WithLabelValues(kind).Inc()
}

// RecordLookup counts a master data lookup. result is one of
// "memo", "snapshot", "store" or "miss".
func RecordLookup(kind, result string) {
	masterdataLookups.WithLabelValues(kind, result).Inc()
}

// RecordTransition counts a session moving to status.
func RecordTransition(status string) {
	if status == "" {
		status = "unknown"
	}
	sessionTransitions.WithLabelValues(status).Inc()
}
