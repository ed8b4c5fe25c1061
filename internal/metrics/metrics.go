package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the streaming orchestrator.
type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions       prometheus.Gauge
	StreamsStartedTotal  prometheus.Counter
	StreamsFailedTotal   prometheus.Counter
	ChunksSentTotal      prometheus.Counter
	BytesSentTotal       prometheus.Counter
	RelaysDeliveredTotal prometheus.Counter
	RelaysDroppedTotal   prometheus.Counter
	ActionsDroppedTotal  prometheus.Counter
	EventsPublishedTotal prometheus.Counter
}

// New creates and registers metrics on a fresh registry, so tests can build
// isolated instances.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "video_active_sessions",
			Help: "Number of open playback sessions",
		}),
		StreamsStartedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_streams_started_total",
			Help: "Total number of accepted start-video-stream requests",
		}),
		StreamsFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_streams_failed_total",
			Help: "Total number of streams terminated by a source read error",
		}),
		ChunksSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_chunks_sent_total",
			Help: "Total number of video-data chunks delivered",
		}),
		BytesSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_bytes_sent_total",
			Help: "Total payload bytes delivered in video-data chunks",
		}),
		RelaysDeliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_relays_delivered_total",
			Help: "Total number of video-action relays delivered to peers",
		}),
		RelaysDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_relays_dropped_total",
			Help: "Total number of video-action relays dropped (peer queue full)",
		}),
		ActionsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_actions_dropped_total",
			Help: "Total number of video-action messages received without an open session",
		}),
		EventsPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_events_published_total",
			Help: "Total number of analytics events handed to the event bus",
		}),
	}

	registry.MustRegister(
		m.ActiveSessions,
		m.StreamsStartedTotal,
		m.StreamsFailedTotal,
		m.ChunksSentTotal,
		m.BytesSentTotal,
		m.RelaysDeliveredTotal,
		m.RelaysDroppedTotal,
		m.ActionsDroppedTotal,
		m.EventsPublishedTotal,
	)
	return m
}

// Handler exposes the registry for a /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
