package services

import (
	"sync"
	"time"

	"stagecast/internal/core/domain"
)

// MetricsCollector receives engagement events for external export. The
// Prometheus implementation lives in infrastructure/monitoring.
type MetricsCollector interface {
	StreamWentLive()
	StreamStopped()
	RecordMessage()
	RecordWithheldMessage()
	RecordDonation(amountCents int64)
	RecordAgentTick(agent string)
}

// MetricsService keeps in-memory per-room engagement counters for the stats
// endpoint and mirrors events to the collector when one is attached.
type MetricsService struct {
	mu        sync.RWMutex
	collector MetricsCollector

	viewers        map[domain.StreamID]int
	messagesTotal  map[domain.StreamID]int64
	withheldTotal  map[domain.StreamID]int64
	donationsTotal map[domain.StreamID]int64
	donatedAmount  map[domain.StreamID]domain.Money
	agentTicks     map[domain.StreamID]int64
}

func NewMetricsService(collector MetricsCollector) *MetricsService {
	return &MetricsService{
		collector:      collector,
		viewers:        make(map[domain.StreamID]int),
		messagesTotal:  make(map[domain.StreamID]int64),
		withheldTotal:  make(map[domain.StreamID]int64),
		donationsTotal: make(map[domain.StreamID]int64),
		donatedAmount:  make(map[domain.StreamID]domain.Money),
		agentTicks:     make(map[domain.StreamID]int64),
	}
}

func (m *MetricsService) RecordViewerJoined(streamID domain.StreamID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewers[streamID]++
}

func (m *MetricsService) RecordViewerLeft(streamID domain.StreamID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewers[streamID] > 0 {
		m.viewers[streamID]--
	}
}

func (m *MetricsService) RecordMessage(streamID domain.StreamID) {
	m.mu.Lock()
	m.messagesTotal[streamID]++
	m.mu.Unlock()

	if m.collector != nil {
		m.collector.RecordMessage()
	}
}

func (m *MetricsService) RecordWithheldMessage(streamID domain.StreamID) {
	m.mu.Lock()
	m.withheldTotal[streamID]++
	m.mu.Unlock()

	if m.collector != nil {
		m.collector.RecordWithheldMessage()
	}
}

func (m *MetricsService) RecordDonation(streamID domain.StreamID, amount domain.Money) {
	m.mu.Lock()
	m.donationsTotal[streamID]++
	m.donatedAmount[streamID] += amount
	m.mu.Unlock()

	if m.collector != nil {
		m.collector.RecordDonation(int64(amount))
	}
}

func (m *MetricsService) RecordAgentTick(streamID domain.StreamID, agent domain.AgentID) {
	m.mu.Lock()
	m.agentTicks[streamID]++
	m.mu.Unlock()

	if m.collector != nil {
		m.collector.RecordAgentTick(string(agent))
	}
}

func (m *MetricsService) RecordStreamLive(streamID domain.StreamID) {
	// Engagement counters accumulate across live sessions of the same stream.
	if m.collector != nil {
		m.collector.StreamWentLive()
	}
}

func (m *MetricsService) RecordStreamStopped(streamID domain.StreamID) {
	m.mu.Lock()
	m.viewers[streamID] = 0
	m.mu.Unlock()

	if m.collector != nil {
		m.collector.StreamStopped()
	}
}

func (m *MetricsService) GetRoomStats(streamID domain.StreamID) *domain.RoomStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &domain.RoomStats{
		StreamID:       streamID,
		Viewers:        m.viewers[streamID],
		MessagesTotal:  m.messagesTotal[streamID],
		WithheldTotal:  m.withheldTotal[streamID],
		DonationsTotal: m.donationsTotal[streamID],
		DonatedAmount:  m.donatedAmount[streamID],
		AgentTicks:     m.agentTicks[streamID],
		Timestamp:      time.Now(),
	}
}
