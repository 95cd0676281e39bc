package chatclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

// ErrStreamActive is returned by Send while the previous message streams.
var ErrStreamActive = errors.New("a response is still streaming")

// StreamFunc streams one request into msg. Client.Stream and Client.StreamWS
// satisfy it.
type StreamFunc func(ctx context.Context, req *domain.ChatRequest, budget time.Duration, msg *Message) error

// Thread is one conversation with at most one in-progress message.
type Thread struct {
	mu             sync.Mutex
	stream         StreamFunc
	agentID        string
	conversationID string
	budget         time.Duration
	history        []domain.ChatMessage
	active         *Message
}

// NewThread creates a conversation against agentID. budget is the agent's
// advertised response time.
func NewThread(stream StreamFunc, agentID, conversationID string, budget time.Duration) *Thread {
	return &Thread{
		stream:         stream,
		agentID:        agentID,
		conversationID: conversationID,
		budget:         budget,
	}
}

// History returns a copy of the completed exchange.
func (t *Thread) History() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ChatMessage, len(t.history))
	copy(out, t.history)
	return out
}

// Send streams a reply to text and blocks until the reply is terminal. The
// returned message is never nil unless ErrStreamActive is returned.
func (t *Thread) Send(ctx context.Context, text string, onUpdate func(Snapshot)) (*Message, error) {
	t.mu.Lock()
	if t.active != nil && !t.active.Snapshot().State.Terminal() {
		t.mu.Unlock()
		return nil, ErrStreamActive
	}
	msg := NewMessage(onUpdate)
	t.active = msg
	t.history = append(t.history, domain.ChatMessage{Role: domain.RoleUser, Content: text})
	req := &domain.ChatRequest{
		Messages:       append([]domain.ChatMessage(nil), t.history...),
		AgentID:        t.agentID,
		ConversationID: t.conversationID,
	}
	t.mu.Unlock()

	err := t.stream(ctx, req, t.budget, msg)

	snap := msg.Snapshot()
	if snap.State == domain.MessageStateCompleted && snap.Text != "" && snap.Text != NoResponseText {
		t.mu.Lock()
		t.history = append(t.history, domain.ChatMessage{Role: domain.RoleAssistant, Content: snap.Text})
		t.mu.Unlock()
	}
	return msg, err
}
