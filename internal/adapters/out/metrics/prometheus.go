// internal/adapters/out/metrics/prometheus.go
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"optivista/internal/application/errorbus"
)

// Metrics implements live.FeedObserver and write.OutcomeObserver and counts
// permission errors seen on the emitter.
type Metrics struct {
	feedsOpen     *prometheus.GaugeVec
	feedsOpened   *prometheus.CounterVec
	permissionErr *prometheus.CounterVec
	writes        *prometheus.CounterVec
}

// New registers the collectors on reg, the registry that backs /metrics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		feedsOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "optivista",
			Name:      "live_feeds_open",
			Help:      "Live feeds currently open, by collection.",
		}, []string{"collection"}),
		feedsOpened: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optivista",
			Name:      "live_feeds_opened_total",
			Help:      "Live feeds opened, by collection.",
		}, []string{"collection"}),
		permissionErr: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optivista",
			Name:      "permission_errors_total",
			Help:      "Permission errors published on the error emitter, by operation and collection.",
		}, []string{"operation", "collection"}),
		writes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optivista",
			Name:      "writes_total",
			Help:      "Non-blocking writes by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) FeedOpened(path string) {
	c := collectionOf(path)
	m.feedsOpen.WithLabelValues(c).Inc()
	m.feedsOpened.WithLabelValues(c).Inc()
}

func (m *Metrics) FeedClosed(path string) {
	m.feedsOpen.WithLabelValues(collectionOf(path)).Dec()
}

func (m *Metrics) WriteFinished(kind errorbus.OpKind, _ string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.writes.WithLabelValues(string(kind), outcome).Inc()
}

// Attach counts every permission error published on bus. It returns the
// unsubscribe function.
func (m *Metrics) Attach(bus *errorbus.Emitter) func() {
	return bus.On(errorbus.TopicPermissionError, func(e *errorbus.PermissionError) {
		m.permissionErr.WithLabelValues(string(e.Kind), collectionOf(e.Path)).Inc()
	})
}

// collectionOf keeps label cardinality bounded: documents collapse to their collection.
func collectionOf(path string) string {
	p := strings.Trim(path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "unknown"
	}
	return p
}
