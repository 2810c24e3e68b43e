package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage labels for upstream calls.
const (
	StageSession       = "session"
	StageTranscription = "transcription"
	StageGeneration    = "generation"
	StageSynthesis     = "synthesis"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RepliesTotal     *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	SessionsTotal    *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "voice_gateway"
	}

	registry := prometheus.NewRegistry()

	repliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Pipeline replies by outcome",
		},
		[]string{"outcome"},
	)

	upstreamRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream provider calls by stage and result",
		},
		[]string{"stage", "result"},
	)

	upstreamDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Upstream provider call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"stage"},
	)

	sessionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Realtime session mint attempts by result",
		},
		[]string{"result"},
	)

	registry.MustRegister(repliesTotal, upstreamRequests, upstreamDuration, sessionsTotal)

	return &Metrics{
		registry:         registry,
		RepliesTotal:     repliesTotal,
		UpstreamRequests: upstreamRequests,
		UpstreamDuration: upstreamDuration,
		SessionsTotal:    sessionsTotal,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one upstream call that started at start.
func (m *Metrics) ObserveUpstream(stage string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(stage, result(err)).Inc()
	m.UpstreamDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordReply(outcome string) {
	if m == nil {
		return
	}
	m.RepliesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSession(err error) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
