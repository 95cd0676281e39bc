// Package domain defines the core domain models for the relay and its clients.
package domain

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// MessageState is the lifecycle state of an in-progress message on the client.
type MessageState string

const (
	MessageStateIdle      MessageState = "idle"
	MessageStateSending   MessageState = "sending"
	MessageStateStreaming MessageState = "streaming"
	MessageStateCompleted MessageState = "completed"
	MessageStateTimedOut  MessageState = "timed_out"
	MessageStateErrored   MessageState = "errored"
	MessageStateCancelled MessageState = "cancelled"
)

// Terminal reports whether s is a final state.
func (s MessageState) Terminal() bool {
	switch s {
	case MessageStateCompleted, MessageStateTimedOut, MessageStateErrored, MessageStateCancelled:
		return true
	}
	return false
}

// EventType represents the type of a recorded relay event.
type EventType string

const (
	EventTypeRelayStarted     EventType = "relay_started"
	EventTypeRelayCompleted   EventType = "relay_completed"
	EventTypeRelayFallback    EventType = "relay_fallback"
	EventTypeRelayFailed      EventType = "relay_failed"
	EventTypeUpstreamRejected EventType = "upstream_rejected"
)

// SkipReason explains why an upstream line produced no event.
type SkipReason string

const (
	SkipNotData       SkipReason = "not_data"
	SkipMalformedJSON SkipReason = "malformed_json"
	SkipEmptyDelta    SkipReason = "empty_delta"
)
