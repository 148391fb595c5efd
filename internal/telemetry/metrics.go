package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "evidark"

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	wsConnections     prometheus.Gauge
	wsRooms           prometheus.Gauge
	onlineUsers       prometheus.Gauge
	messagesPersisted *prometheus.CounterVec
	broadcasts        *prometheus.CounterVec
	rejectedFrames    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Live WebSocket connections.",
		}),
		wsRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_rooms",
			Help:      "Chat rooms with at least one subscribed connection.",
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Users with at least one live connection.",
		}),
		messagesPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_persisted_total",
			Help:      "Messages persisted, by entry point.",
		}, []string{"path"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Outbound events fanned out, by event type.",
		}, []string{"event"}),
		rejectedFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_rejected_frames_total",
			Help:      "Inbound frames refused at the protocol boundary, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.wsConnections,
		m.wsRooms,
		m.onlineUsers,
		m.messagesPersisted,
		m.broadcasts,
		m.rejectedFrames,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.wsConnections.Set(float64(n))
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.wsRooms.Set(float64(n))
}

func (m *Metrics) SetOnlineUsers(n int) {
	if m == nil {
		return
	}
	m.onlineUsers.Set(float64(n))
}

func (m *Metrics) MessagePersisted(path string) {
	if m == nil {
		return
	}
	m.messagesPersisted.WithLabelValues(path).Inc()
}

func (m *Metrics) Broadcast(event string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(event).Inc()
}

func (m *Metrics) FrameRejected(reason string) {
	if m == nil {
		return
	}
	m.rejectedFrames.WithLabelValues(reason).Inc()
}
