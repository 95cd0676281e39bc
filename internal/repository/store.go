// Package store records relay sessions. The relay only inserts; reads exist for
// diagnostics and tests.
package store

import (
	"context"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

// Store is the persistence collaborator used by the relay service.
type Store interface {
	// CreateConversation inserts the conversation if it does not exist yet.
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	CreateMessage(ctx context.Context, msg *domain.Message) error
	CreateEvent(ctx context.Context, event *domain.Event) error

	GetMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	GetEvents(ctx context.Context, sessionID string, types []domain.EventType) ([]domain.Event, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
