package modinject

import (
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors a container reports to. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	instantiations       *prometheus.CounterVec
	resolutionErrors     *prometheus.CounterVec
	constructionDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. Several containers may
// share one Metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		instantiations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modinject_instantiations_total",
				Help: "Number of provider instances constructed, by provider type.",
			},
			[]string{"provider"},
		),
		resolutionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modinject_resolution_errors_total",
				Help: "Number of failed lookups and bootstraps, by error kind.",
			},
			[]string{"kind"},
		),
		constructionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "modinject_construction_duration_seconds",
				Help:    "Time spent in provider constructors.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.instantiations,
			m.resolutionErrors,
			m.constructionDuration,
		)
	}
	return m
}

func (m *Metrics) instantiated(t reflect.Type) {
	if m == nil {
		return
	}
	m.instantiations.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) failed(err error) {
	if m == nil {
		return
	}
	m.resolutionErrors.WithLabelValues(errorKind(err)).Inc()
}

func (m *Metrics) observeConstruction(d time.Duration) {
	if m == nil {
		return
	}
	m.constructionDuration.Observe(d.Seconds())
}
