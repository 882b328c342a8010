// Package metrics exposes Prometheus collectors for the quiz service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Sessions       *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	Checks         *prometheus.CounterVec
	Percentage     *prometheus.HistogramVec

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fapquiz_sessions_total",
				Help: "Test sessions by lifecycle event",
			},
			[]string{"event"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fapquiz_sessions_active",
			Help: "Sessions started and not yet finished",
		}),
		Checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fapquiz_answer_checks_total",
				Help: "Checked answers by question type",
			},
			[]string{"type"},
		),
		Percentage: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fapquiz_result_percentage",
				Help:    "Final percentage of finished sessions",
				Buckets: []float64{20, 40, 60, 80, 90, 100},
			},
			[]string{"theme", "band"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"method", "endpoint"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.Sessions, m.ActiveSessions, m.Checks, m.Percentage, m.RequestCounter, m.RequestDuration)
	return m
}

func (m *Metrics) SessionStarted() {
	m.Sessions.WithLabelValues("started").Inc()
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionRestarted() {
	m.Sessions.WithLabelValues("restarted").Inc()
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionFinished(theme, band string, pct float64) {
	m.Sessions.WithLabelValues("finished").Inc()
	m.ActiveSessions.Dec()
	m.Percentage.WithLabelValues(theme, band).Observe(pct)
}

// SessionExpired counts an attempt dropped for idleness.
func (m *Metrics) SessionExpired(inProgress bool) {
	m.Sessions.WithLabelValues("expired").Inc()
	if inProgress {
		m.ActiveSessions.Dec()
	}
}

func (m *Metrics) AnswerChecked(variant string) {
	m.Checks.WithLabelValues(variant).Inc()
}

// Middleware records every request under its chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
