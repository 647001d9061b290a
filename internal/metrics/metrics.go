// Package metrics exposes Prometheus instrumentation for the guide pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters for the guide pipeline.
type Metrics struct {
	registry         *prometheus.Registry
	eventsAdmitted   prometheus.Counter
	eventsSkipped    *prometheus.CounterVec
	programmesTotal  prometheus.Counter
	announcements    prometheus.Counter
	fragmentFailures prometheus.Counter
	refreshesTotal   prometheus.Counter
	refreshFailures  prometheus.Counter
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	eventsAdmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guide_events_admitted_total",
		Help: "Total number of feed events admitted for synthesis",
	})
	eventsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guide_events_skipped_total",
		Help: "Total number of feed entries dropped during admission or synthesis",
	}, []string{"reason"})
	programmesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guide_programmes_total",
		Help: "Total number of programme blocks emitted",
	})
	announcements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guide_announcements_total",
		Help: "Total number of announcement filler blocks emitted",
	})
	fragmentFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guide_fragment_failures_total",
		Help: "Total number of external fragment downloads that failed",
	})
	refreshesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guide_refreshes_total",
		Help: "Total number of completed guide rebuilds",
	})
	refreshFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guide_refresh_failures_total",
		Help: "Total number of guide rebuilds that failed",
	})

	registry.MustRegister(
		eventsAdmitted,
		eventsSkipped,
		programmesTotal,
		announcements,
		fragmentFailures,
		refreshesTotal,
		refreshFailures,
	)

	return &Metrics{
		registry:         registry,
		eventsAdmitted:   eventsAdmitted,
		eventsSkipped:    eventsSkipped,
		programmesTotal:  programmesTotal,
		announcements:    announcements,
		fragmentFailures: fragmentFailures,
		refreshesTotal:   refreshesTotal,
		refreshFailures:  refreshFailures,
	}
}

// AddEventsAdmitted adds to the admitted events counter.
func (m *Metrics) AddEventsAdmitted(n int) {
	m.eventsAdmitted.Add(float64(n))
}

// IncEventSkipped increments the skipped counter for one reason.
func (m *Metrics) IncEventSkipped(reason string) {
	m.eventsSkipped.WithLabelValues(reason).Inc()
}

// AddProgrammes adds to the emitted programme counter.
func (m *Metrics) AddProgrammes(n int) {
	m.programmesTotal.Add(float64(n))
}

// AddAnnouncements adds to the emitted announcement counter.
func (m *Metrics) AddAnnouncements(n int) {
	m.announcements.Add(float64(n))
}

// IncFragmentFailure increments the fragment failure counter.
func (m *Metrics) IncFragmentFailure() {
	m.fragmentFailures.Inc()
}

// IncRefresh increments the refresh counter, or the failure counter when the
// rebuild did not succeed.
func (m *Metrics) IncRefresh(failed bool) {
	if failed {
		m.refreshFailures.Inc()
		return
	}
	m.refreshesTotal.Inc()
}

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
