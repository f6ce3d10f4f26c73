// Package metrics exports history activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strings"

	undo "github.com/goliatone/go-undo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "cardhist"

// HistoryMetrics implements undo.Observer.
type HistoryMetrics struct {
	entries     prometheus.Gauge
	cursor      prometheus.Gauge
	recorded    *prometheus.CounterVec
	squashed    prometheus.Counter
	truncated   prometheus.Counter
	navigations *prometheus.CounterVec
	saves       *prometheus.CounterVec
}

var _ undo.Observer = (*HistoryMetrics)(nil)

// NewHistoryMetrics creates the history collectors and registers them with
// reg. An empty namespace uses DefaultNamespace.
func NewHistoryMetrics(reg prometheus.Registerer, namespace string) (*HistoryMetrics, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &HistoryMetrics{
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "entries",
			Help:      "Number of entries currently held by the history.",
		}),
		cursor: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "cursor",
			Help:      "Index of the entry matching the live state.",
		}),
		recorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "recorded_total",
			Help:      "Entries recorded, by mutation label.",
		}, []string{"label"}),
		squashed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "squashed_total",
			Help:      "Recordings that replaced the previous entry.",
		}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "truncated_entries_total",
			Help:      "Redo entries discarded by new recordings.",
		}),
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "navigations_total",
			Help:      "Undo and redo requests, by direction and result.",
		}, []string{"direction", "result"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "library",
			Name:      "saves_total",
			Help:      "Library saves, by trigger and result.",
		}, []string{"trigger", "result"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.entries, m.cursor, m.recorded, m.squashed, m.truncated, m.navigations, m.saves} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Recorded implements undo.Observer.
func (m *HistoryMetrics) Recorded(label string, squashed bool, truncated, length int) {
	if label == "" {
		label = "initial"
	}
	m.recorded.WithLabelValues(label).Inc()
	if squashed {
		m.squashed.Inc()
	}
	if truncated > 0 {
		m.truncated.Add(float64(truncated))
	}
	m.entries.Set(float64(length))
	m.cursor.Set(float64(length - 1))
}

// Navigated implements undo.Observer.
func (m *HistoryMetrics) Navigated(direction undo.Direction, moved bool, cursor, length int) {
	result := "noop"
	if moved {
		result = "moved"
	}
	m.navigations.WithLabelValues(string(direction), result).Inc()
	m.entries.Set(float64(length))
	m.cursor.Set(float64(cursor))
}

// LibrarySaved counts one library save. trigger is the mutation name or the
// navigation direction that caused it.
func (m *HistoryMetrics) LibrarySaved(trigger string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.saves.WithLabelValues(trigger, result).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
