package domain

import (
	"time"
)

// ChatMessage is a chat event fanned out to a room. System messages (for
// example moderation notices) are only delivered to the original sender.
type ChatMessage struct {
	ID         string    `json:"id"`
	StreamID   StreamID  `json:"stream_id"`
	SenderID   UserID    `json:"sender_id,omitempty"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	IsSystem   bool      `json:"is_system,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}
