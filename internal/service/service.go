// Package service implements the relay session: it forwards a chat request to
// the completion provider and re-frames the provider stream into relay events.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mahirxmc/nova-agent-2/internal/adapter/llm"
	"github.com/mahirxmc/nova-agent-2/internal/agents"
	"github.com/mahirxmc/nova-agent-2/internal/domain"
	"github.com/mahirxmc/nova-agent-2/internal/observability"
	"github.com/mahirxmc/nova-agent-2/internal/policy"
	store "github.com/mahirxmc/nova-agent-2/internal/repository"
)

// FallbackMessage is sent as content when the upstream fails after the stream
// has started.
const FallbackMessage = "I apologize, but I encountered an issue processing your request. Please try again."

// Options are the provider request defaults.
type Options struct {
	DefaultModel string
	MaxTokens    int
	Temperature  float64
}

// Service opens relay sessions. It holds no per-session state.
type Service struct {
	provider llm.Provider
	agents   *agents.Registry
	policy   *policy.Engine
	store    store.Store
	metrics  *observability.RelayMetrics
	opts     Options
}

// New creates a relay service. engine, st and metrics may be nil.
func New(provider llm.Provider, registry *agents.Registry, engine *policy.Engine, st store.Store, metrics *observability.RelayMetrics, opts Options) *Service {
	return &Service{
		provider: provider,
		agents:   registry,
		policy:   engine,
		store:    st,
		metrics:  metrics,
		opts:     opts,
	}
}

// Agents returns the agent registry.
func (s *Service) Agents() *agents.Registry {
	return s.agents
}

// Provider returns the completion provider.
func (s *Service) Provider() llm.Provider {
	return s.provider
}

// Open validates req, builds the provider request and opens the upstream
// stream. Errors returned here happen before any relay event is written: a
// wrapped domain.ErrInvalidRequest, a *llm.StatusError, or a transport error.
// ctx must stay alive for the whole session; cancelling it aborts the upstream.
func (s *Service) Open(ctx context.Context, req *domain.ChatRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	agentKey := req.AgentID
	if agentKey == "" {
		agentKey = req.AgentType
	}
	profile := s.agents.Resolve(agentKey)
	model := s.selectModel(ctx, req.Model, profile.ID)

	sess := &Session{
		ID:             uuid.NewString(),
		Agent:          profile,
		Model:          model,
		ConversationID: req.ConversationID,
		svc:            s,
		started:        time.Now(),
	}
	if sess.ConversationID == "" {
		sess.ConversationID = sess.ID
	}

	upstreamReq := s.buildRequest(profile, model, req.Messages)
	stream, err := s.provider.OpenStream(ctx, upstreamReq)
	if err != nil {
		s.metrics.Rejected()
		payload := domain.UpstreamRejectedPayload{Model: model, Error: err.Error()}
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			payload.StatusCode = statusErr.StatusCode
		}
		sess.record(ctx, domain.EventTypeUpstreamRejected, payload)
		log.Printf("WARN: relay %s upstream rejected: %v", sess.ID, err)
		return nil, fmt.Errorf("failed to open upstream stream: %w", err)
	}
	sess.stream = stream

	sess.recordStart(ctx, req)
	return sess, nil
}

func (s *Service) selectModel(ctx context.Context, requested, agentID string) string {
	if s.policy == nil {
		if requested != "" {
			return requested
		}
		return s.opts.DefaultModel
	}
	model, err := s.policy.SelectModel(ctx, policy.Input{Model: requested, AgentID: agentID})
	if err != nil {
		log.Printf("WARN: model policy failed, using default model: %v", err)
		return s.opts.DefaultModel
	}
	if model == "" {
		return s.opts.DefaultModel
	}
	return model
}

// buildRequest prepends exactly one system message and drops any the client
// supplied.
func (s *Service) buildRequest(profile domain.AgentProfile, model string, msgs []domain.ChatMessage) *llm.ChatCompletionRequest {
	out := make([]llm.ChatMessage, 0, len(msgs)+1)
	out = append(out, llm.ChatMessage{Role: string(domain.RoleSystem), Content: profile.SystemPrompt})
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			continue
		}
		out = append(out, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	maxTokens := s.opts.MaxTokens
	temperature := s.opts.Temperature
	return &llm.ChatCompletionRequest{
		Model:       model,
		Messages:    out,
		Stream:      true,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}
}
