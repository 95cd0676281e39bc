package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreConversationAndMessages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	conv := &domain.Conversation{ConversationID: "c1", AgentID: "researcher", CreatedAt: time.Now()}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation should be idempotent: %v", err)
	}

	now := time.Now()
	msgs := []*domain.Message{
		{MessageID: "m1", ConversationID: "c1", SessionID: "s1", Role: domain.RoleUser, Content: "hello", CreatedAt: now},
		{MessageID: "m2", ConversationID: "c1", SessionID: "s1", Role: domain.RoleAssistant, Content: "hi there", CreatedAt: now.Add(time.Millisecond)},
	}
	for _, m := range msgs {
		if err := store.CreateMessage(ctx, m); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	got, err := store.GetMessages(ctx, "c1", 10)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Role != domain.RoleUser || got[1].Content != "hi there" || got[1].SessionID != "s1" {
		t.Fatalf("unexpected messages: %+v", got)
	}

	limited, err := store.GetMessages(ctx, "c1", 1)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(limited) != 1 || limited[0].MessageID != "m1" {
		t.Fatalf("unexpected limited messages: %+v", limited)
	}
}

func TestSQLiteStoreMessageRequiresConversation(t *testing.T) {
	store := newTestStore(t)
	err := store.CreateMessage(context.Background(), &domain.Message{
		MessageID: "m1", ConversationID: "missing", Role: domain.RoleUser, Content: "x", CreatedAt: time.Now(),
	})
	if err == nil {
		t.Fatalf("expected foreign key violation")
	}
}

func TestSQLiteStoreEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	payload, _ := json.Marshal(domain.RelayStartedPayload{AgentID: "developer", Model: "llama"})
	events := []*domain.Event{
		{EventID: "e1", SessionID: "s1", ConversationID: "c1", Ts: 1, Type: domain.EventTypeRelayStarted, Payload: payload},
		{EventID: "e2", SessionID: "s1", Ts: 2, Type: domain.EventTypeRelayCompleted},
		{EventID: "e3", SessionID: "s2", Ts: 3, Type: domain.EventTypeRelayStarted},
	}
	for _, e := range events {
		if err := store.CreateEvent(ctx, e); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}

	all, err := store.GetEvents(ctx, "s1", nil)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(all) != 2 || all[0].ConversationID != "c1" || all[1].ConversationID != "" {
		t.Fatalf("unexpected events: %+v", all)
	}

	var started domain.RelayStartedPayload
	if err := json.Unmarshal(all[0].Payload, &started); err != nil || started.Model != "llama" {
		t.Fatalf("unexpected payload %s: %v", all[0].Payload, err)
	}
	if all[1].Payload != nil {
		t.Fatalf("expected nil payload, got %s", all[1].Payload)
	}

	filtered, err := store.GetEvents(ctx, "s1", []domain.EventType{domain.EventTypeRelayCompleted})
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].EventID != "e2" {
		t.Fatalf("unexpected filtered events: %+v", filtered)
	}
}
