package domain

import (
	"time"
)

type AgentID string

const (
	AgentDirector  AgentID = "director"
	AgentModerator AgentID = "moderator"
)

type ActionType string

const (
	ActionSuggestion  ActionType = "suggestion"
	ActionSceneSwitch ActionType = "scene_switch"
	ActionSafetyCheck ActionType = "safety_check"
)

// Suggestion is what a suggestion source produces on each scheduler tick.
type Suggestion struct {
	AgentID    AgentID                `json:"agent_id"`
	ActionType ActionType             `json:"action_type"`
	Message    string                 `json:"message"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Confidence float64                `json:"confidence"`
}

// AgentAction is the append-only audit record of a suggestion or action taken
// by an agent. Seq is monotonic within a stream; records are immutable once
// written.
type AgentAction struct {
	ID         string                 `json:"id"`
	Seq        int64                  `json:"seq"`
	StreamID   StreamID               `json:"stream_id"`
	AgentID    AgentID                `json:"agent_id"`
	ActionType ActionType             `json:"action_type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Confidence float64                `json:"confidence"`
	CreatedAt  time.Time              `json:"created_at"`
}
