package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRequest is wrapped by every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// ChatMessage represents a single chat message.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by the relay chat endpoints.
// Only Messages, AgentID and Model affect relaying; the remaining fields are
// accepted for compatibility with the web client.
type ChatRequest struct {
	Messages       []ChatMessage `json:"messages"`
	AgentID        string        `json:"agentId,omitempty"`
	AgentType      string        `json:"agentType,omitempty"`
	ConversationID string        `json:"conversationId,omitempty"`
	ThinkingStyle  string        `json:"thinkingStyle,omitempty"`
	Model          string        `json:"model,omitempty"`
}

// Validate checks the request has at least one message and only known roles.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: messages is required", ErrInvalidRequest)
	}
	for i, msg := range r.Messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("%w: messages[%d] has invalid role %q", ErrInvalidRequest, i, msg.Role)
		}
	}
	return nil
}

// LastUserMessage returns the most recent user message, if any.
func (r *ChatRequest) LastUserMessage() (ChatMessage, bool) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i], true
		}
	}
	return ChatMessage{}, false
}

// AgentProfile maps an agent key to its system prompt and response budget.
type AgentProfile struct {
	ID              string        `json:"id" yaml:"id"`
	Name            string        `json:"name" yaml:"name"`
	SystemPrompt    string        `json:"system_prompt" yaml:"system_prompt"`
	MaxResponseTime time.Duration `json:"max_response_time" yaml:"max_response_time"`
}
