package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exports the coordination layer's operational metrics.
// It implements the hub's BroadcastMetrics contract and is also fed directly
// by the services.
type PrometheusCollector struct {
	activeConnections prometheus.Gauge
	liveRooms         prometheus.Gauge

	broadcastsTotal   *prometheus.CounterVec
	droppedSendsTotal *prometheus.CounterVec
	messagesTotal     prometheus.Counter
	withheldTotal     prometheus.Counter
	donationsTotal    prometheus.Counter
	donatedCentsTotal prometheus.Counter
	agentTicksTotal   *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		activeConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stagecast_active_connections",
			Help: "Number of websocket connections currently registered",
		}),
		liveRooms: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stagecast_live_rooms",
			Help: "Number of rooms currently live",
		}),
		broadcastsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagecast_broadcasts_total",
			Help: "Room broadcasts fanned out, by event type",
		}, []string{"event"}),
		droppedSendsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagecast_dropped_sends_total",
			Help: "Per-connection event deliveries dropped on full send queues",
		}, []string{"event"}),
		messagesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagecast_chat_messages_total",
			Help: "Chat messages accepted and fanned out",
		}),
		withheldTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagecast_chat_withheld_total",
			Help: "Chat messages withheld by the moderation gate",
		}),
		donationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagecast_donations_total",
			Help: "Donations committed to the ledger",
		}),
		donatedCentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagecast_donated_cents_total",
			Help: "Gross donated amount in minor units",
		}),
		agentTicksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagecast_agent_ticks_total",
			Help: "Agent scheduler ticks fired, by agent",
		}, []string{"agent"}),
	}
}

func (c *PrometheusCollector) SetActiveConnections(n int) {
	c.activeConnections.Set(float64(n))
}

func (c *PrometheusCollector) StreamWentLive() {
	c.liveRooms.Inc()
}

func (c *PrometheusCollector) StreamStopped() {
	c.liveRooms.Dec()
}

func (c *PrometheusCollector) RecordBroadcast(event string, recipients int) {
	c.broadcastsTotal.WithLabelValues(event).Inc()
}

func (c *PrometheusCollector) RecordDroppedSend(event string) {
	c.droppedSendsTotal.WithLabelValues(event).Inc()
}

func (c *PrometheusCollector) RecordMessage() {
	c.messagesTotal.Inc()
}

func (c *PrometheusCollector) RecordWithheldMessage() {
	c.withheldTotal.Inc()
}

func (c *PrometheusCollector) RecordDonation(amountCents int64) {
	c.donationsTotal.Inc()
	c.donatedCentsTotal.Add(float64(amountCents))
}

func (c *PrometheusCollector) RecordAgentTick(agent string) {
	c.agentTicksTotal.WithLabelValues(agent).Inc()
}
