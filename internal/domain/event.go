package domain

import (
	"encoding/json"
	"time"
)

// Conversation groups messages recorded under one client conversation id.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	AgentID        string    `json:"agent_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Message is a recorded chat message.
type Message struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SessionID      string    `json:"session_id,omitempty"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Event represents a recorded relay lifecycle event.
type Event struct {
	EventID        string          `json:"event_id"`
	SessionID      string          `json:"session_id"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Ts             int64           `json:"ts"` // Unix milliseconds
	Type           EventType       `json:"type"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// RelayStartedPayload is the payload for relay_started.
type RelayStartedPayload struct {
	AgentID string `json:"agent_id"`
	Model   string `json:"model"`
}

// RelayEndedPayload is the payload for relay_completed, relay_fallback and relay_failed.
type RelayEndedPayload struct {
	ContentEvents int    `json:"content_events"`
	SkippedFrames int    `json:"skipped_frames"`
	LatencyMs     int64  `json:"latency_ms"`
	Error         string `json:"error,omitempty"`
}

// UpstreamRejectedPayload is the payload for upstream_rejected.
type UpstreamRejectedPayload struct {
	Model      string `json:"model"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error"`
}
