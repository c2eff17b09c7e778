package rt

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts runtime activity per component path. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	constructions *prometheus.CounterVec
	errors        *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	conditions    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "odigraph_constructions_total",
				Help: "Number of values constructed by registered functions.",
			},
			[]string{"component"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "odigraph_construction_errors_total",
				Help: "Number of failed constructions.",
			},
			[]string{"component"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "odigraph_cache_hits_total",
				Help: "Number of accesses served from a cached slot.",
			},
			[]string{"component"},
		),
		conditions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "odigraph_condition_evaluations_total",
				Help: "Number of condition literals computed.",
			},
			[]string{"component"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "odigraph_construction_duration_seconds",
				Help:    "Time taken by registered functions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"component"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.constructions, m.errors, m.cacheHits, m.conditions, m.duration)
	}
	return m
}

func (m *Metrics) observeConstruction(component string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.constructions.WithLabelValues(component).Inc()
	m.duration.WithLabelValues(component).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(component).Inc()
	}
}

func (m *Metrics) cacheHit(component string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(component).Inc()
}

func (m *Metrics) conditionEvaluated(component string) {
	if m == nil {
		return
	}
	m.conditions.WithLabelValues(component).Inc()
}
