package perf

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry for the server.
type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	queryDuration   *prometheus.HistogramVec
	businessEvents  *prometheus.CounterVec
}

// NewMetrics registers the gymdesk collectors plus Go runtime and process
// collectors on a fresh registry.
// POST: Returns metrics ready to observe and serve
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gymdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gymdesk",
			Name:      "db_query_duration_seconds",
			Help:      "SQLite call latency by operation.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"op"}),
		businessEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymdesk",
			Name:      "events_total",
			Help:      "Domain events such as bills created or notifications sent.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		m.requestDuration,
		m.queryDuration,
		m.businessEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CountEvent increments the domain event counter. Safe on a nil receiver.
func (m *Metrics) CountEvent(event string) {
	if m == nil {
		return
	}
	m.businessEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) observe(e Entry) {
	if m == nil {
		return
	}
	seconds := e.DurationMs / 1000
	switch e.Kind {
	case KindRequest:
		method, route, ok := strings.Cut(e.Path, " ")
		if !ok {
			method, route = "", e.Path
		}
		m.requestDuration.WithLabelValues(method, route, strconv.Itoa(e.StatusCode)).Observe(seconds)
	case KindQuery:
		m.queryDuration.WithLabelValues(e.Path).Observe(seconds)
	}
}

// RouteLabel collapses identifier segments of a URL path to "{id}" so metric
// label cardinality stays bounded.
// POST: "/api/bills/3f2a.../pay" becomes "/api/bills/{id}/pay"
func RouteLabel(path string) string {
	if strings.HasPrefix(path, "/uploads/") {
		return "/uploads/{file}"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if looksLikeID(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) < 8 {
		return false
	}
	digits := 0
	for _, r := range seg {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > 0
}
