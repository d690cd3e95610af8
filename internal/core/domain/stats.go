package domain

import "time"

// RoomStats is a point-in-time engagement snapshot for one room.
type RoomStats struct {
	StreamID       StreamID  `json:"stream_id"`
	Viewers        int       `json:"viewers"`
	MessagesTotal  int64     `json:"messages_total"`
	WithheldTotal  int64     `json:"withheld_total"`
	DonationsTotal int64     `json:"donations_total"`
	DonatedAmount  Money     `json:"donated_amount"`
	AgentTicks     int64     `json:"agent_ticks"`
	Timestamp      time.Time `json:"timestamp"`
}
