package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
	"github.com/mahirxmc/nova-agent-2/internal/observability"
)

const recordTimeout = 5 * time.Second

// recordCtx detaches from the request so recording survives a client that
// already went away.
func recordCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
}

func (s *Session) record(ctx context.Context, typ domain.EventType, payload any) {
	st := s.svc.store
	if st == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WARN: failed to marshal %s payload: %v", typ, err)
		return
	}
	ctx, cancel := recordCtx(ctx)
	defer cancel()

	event := &domain.Event{
		EventID:        "evt_" + uuid.NewString(),
		SessionID:      s.ID,
		ConversationID: s.ConversationID,
		Ts:             time.Now().UnixMilli(),
		Type:           typ,
		Payload:        data,
	}
	if err := st.CreateEvent(ctx, event); err != nil {
		log.Printf("WARN: failed to record %s event: %v", typ, err)
	}
}

func (s *Session) recordStart(ctx context.Context, req *domain.ChatRequest) {
	st := s.svc.store
	if st == nil {
		return
	}
	rctx, cancel := recordCtx(ctx)
	defer cancel()

	conv := &domain.Conversation{ConversationID: s.ConversationID, AgentID: s.Agent.ID, CreatedAt: time.Now()}
	if err := st.CreateConversation(rctx, conv); err != nil {
		log.Printf("WARN: failed to record conversation: %v", err)
		return
	}
	if msg, ok := req.LastUserMessage(); ok {
		s.recordMessage(rctx, domain.RoleUser, msg.Content)
	}
	s.record(ctx, domain.EventTypeRelayStarted, domain.RelayStartedPayload{AgentID: s.Agent.ID, Model: s.Model})
}

func (s *Session) recordEnd(ctx context.Context, res Result) {
	if s.svc.store == nil {
		return
	}
	if res.Text != "" {
		rctx, cancel := recordCtx(ctx)
		s.recordMessage(rctx, domain.RoleAssistant, res.Text)
		cancel()
	}

	payload := domain.RelayEndedPayload{
		ContentEvents: res.ContentEvents,
		SkippedFrames: res.SkippedFrames,
		LatencyMs:     time.Since(s.started).Milliseconds(),
	}
	if res.Err != nil {
		payload.Error = res.Err.Error()
	}
	typ := domain.EventTypeRelayCompleted
	switch res.Outcome {
	case observability.OutcomeFallback:
		typ = domain.EventTypeRelayFallback
	case observability.OutcomeFailed, observability.OutcomeAborted:
		typ = domain.EventTypeRelayFailed
	}
	s.record(ctx, typ, payload)
}

func (s *Session) recordMessage(ctx context.Context, role domain.Role, content string) {
	msg := &domain.Message{
		MessageID:      "msg_" + uuid.NewString(),
		ConversationID: s.ConversationID,
		SessionID:      s.ID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := s.svc.store.CreateMessage(ctx, msg); err != nil {
		log.Printf("WARN: failed to record %s message: %v", role, err)
	}
}
