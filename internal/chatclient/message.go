// Package chatclient consumes the relay stream and reassembles it into an
// incrementally updated message.
package chatclient

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

// Snapshot is an immutable view of a Message.
type Snapshot struct {
	ID        string
	Text      string
	Streaming bool
	Error     string
	State     domain.MessageState
}

// Message is the in-progress assistant message. It is written only by the
// stream loop that owns it and may be read from any goroutine.
type Message struct {
	mu        sync.Mutex
	id        string
	text      strings.Builder
	streaming bool
	err       string
	state     domain.MessageState
	onUpdate  func(Snapshot)
}

// NewMessage creates an idle message. onUpdate, if set, is called after every
// observable change.
func NewMessage(onUpdate func(Snapshot)) *Message {
	return &Message{
		id:       uuid.NewString(),
		state:    domain.MessageStateIdle,
		onUpdate: onUpdate,
	}
}

// ID returns the stable message id.
func (m *Message) ID() string {
	return m.id
}

// Snapshot returns the current view.
func (m *Message) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Message) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        m.id,
		Text:      m.text.String(),
		Streaming: m.streaming,
		Error:     m.err,
		State:     m.state,
	}
}

func (m *Message) notify(s Snapshot) {
	if m.onUpdate != nil {
		m.onUpdate(s)
	}
}

// transition moves from one non-terminal state to another.
func (m *Message) transition(from, to domain.MessageState) bool {
	m.mu.Lock()
	if m.state != from {
		m.mu.Unlock()
		return false
	}
	m.state = to
	m.streaming = true
	s := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(s)
	return true
}

// Append adds delta text while streaming. It is a no-op once finalized.
func (m *Message) Append(delta string) bool {
	m.mu.Lock()
	if m.state != domain.MessageStateStreaming {
		m.mu.Unlock()
		return false
	}
	m.text.WriteString(delta)
	s := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(s)
	return true
}

// Text returns the accumulated text.
func (m *Message) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text.String()
}

// Finalize ends the message in state with the given text and error. Only the
// first call has any effect. When notify is false the change is not reported.
func (m *Message) Finalize(state domain.MessageState, text, errMsg string, notify bool) bool {
	m.mu.Lock()
	if m.state.Terminal() {
		m.mu.Unlock()
		return false
	}
	m.state = state
	m.streaming = false
	m.text.Reset()
	m.text.WriteString(text)
	m.err = errMsg
	s := m.snapshotLocked()
	m.mu.Unlock()

	if notify {
		m.notify(s)
	}
	return true
}
