// Package observability exposes relay metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

const namespace = "nova_relay"

// Session outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFallback  = "fallback"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeAborted   = "aborted"
)

// RelayMetrics holds the relay's collectors. A nil *RelayMetrics is valid and
// records nothing.
type RelayMetrics struct {
	sessions          *prometheus.CounterVec
	activeStreams     prometheus.Gauge
	contentEvents     prometheus.Counter
	skippedFrames     *prometheus.CounterVec
	timeToFirstToken  prometheus.Histogram
	streamDuration    *prometheus.HistogramVec
	clientDisconnects prometheus.Counter
}

// NewRelayMetrics registers the relay collectors on reg.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	f := promauto.With(reg)
	return &RelayMetrics{
		// Labels: outcome (completed, fallback, failed, rejected, aborted)
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Relay sessions by outcome",
		}, []string{"outcome"}),
		activeStreams: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Relay streams currently open",
		}),
		contentEvents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_events_total",
			Help:      "Content events written to clients",
		}),
		// Labels: reason (not_data, malformed_json, empty_delta)
		skippedFrames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "frames_skipped_total",
			Help:      "Upstream lines ignored by the parser",
		}, []string{"reason"}),
		timeToFirstToken: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "time_to_first_token_seconds",
			Help:      "Time from session open to the first content event",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		streamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stream_duration_seconds",
			Help:      "Relay stream duration by outcome",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"outcome"}),
		clientDisconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_disconnects_total",
			Help:      "Streams abandoned by the client",
		}),
	}
}

// StreamStarted marks a stream as open.
func (m *RelayMetrics) StreamStarted() {
	if m == nil {
		return
	}
	m.activeStreams.Inc()
}

// StreamEnded closes a stream with the given outcome.
func (m *RelayMetrics) StreamEnded(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.activeStreams.Dec()
	m.sessions.WithLabelValues(outcome).Inc()
	m.streamDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Rejected counts a session refused before streaming.
func (m *RelayMetrics) Rejected() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(OutcomeRejected).Inc()
}

// Content counts one content event.
func (m *RelayMetrics) Content() {
	if m == nil {
		return
	}
	m.contentEvents.Inc()
}

// FirstToken observes the delay before the first content event.
func (m *RelayMetrics) FirstToken(d time.Duration) {
	if m == nil {
		return
	}
	m.timeToFirstToken.Observe(d.Seconds())
}

// Skipped counts an ignored upstream line.
func (m *RelayMetrics) Skipped(reason domain.SkipReason) {
	if m == nil {
		return
	}
	m.skippedFrames.WithLabelValues(string(reason)).Inc()
}

// ClientDisconnected counts a stream the client abandoned.
func (m *RelayMetrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.clientDisconnects.Inc()
}
