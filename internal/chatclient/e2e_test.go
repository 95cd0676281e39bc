package chatclient

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahirxmc/nova-agent-2/internal/adapter/llm"
	"github.com/mahirxmc/nova-agent-2/internal/agents"
	"github.com/mahirxmc/nova-agent-2/internal/config"
	"github.com/mahirxmc/nova-agent-2/internal/domain"
	"github.com/mahirxmc/nova-agent-2/internal/observability"
	"github.com/mahirxmc/nova-agent-2/internal/service"
	transport "github.com/mahirxmc/nova-agent-2/internal/transport/http"
)

func newMockRelay(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	mock := llm.NewMockClient()
	mock.ChunkRunes = 4
	svc := service.New(mock, agents.Default(), nil, nil, observability.NewRelayMetrics(reg),
		service.Options{DefaultModel: "mock", MaxTokens: 100, Temperature: 0.7})
	e := transport.NewServer(svc, &config.Config{HTTPPort: 8080}, reg)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

const mockReply = `[MOCK] Received your message: "héllo 🚀". This is a mock response.`

func TestRelayRoundTripOverSSE(t *testing.T) {
	server := newMockRelay(t)
	c := NewClient(server.URL, time.Second, 5*time.Second)

	thread := NewThread(c.Stream, "unknown-agent", "", 30*time.Second)
	msg, err := thread.Send(context.Background(), "héllo 🚀", nil)
	require.NoError(t, err)

	snap := msg.Snapshot()
	assert.Equal(t, domain.MessageStateCompleted, snap.State)
	assert.Equal(t, mockReply, snap.Text)
	assert.False(t, snap.Streaming)
}

func TestRelayRoundTripOverWebSocket(t *testing.T) {
	server := newMockRelay(t)
	c := NewClient(server.URL, time.Second, 5*time.Second)

	var updates int
	msg := NewMessage(func(Snapshot) { updates++ })
	err := c.StreamWS(context.Background(), &domain.ChatRequest{
		AgentID:  "creator",
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "héllo 🚀"}},
	}, 30*time.Second, msg)
	require.NoError(t, err)

	snap := msg.Snapshot()
	assert.Equal(t, domain.MessageStateCompleted, snap.State)
	assert.Equal(t, mockReply, snap.Text)
	assert.Greater(t, updates, 3)
}

func TestWebSocketInvalidRequestEndsWithError(t *testing.T) {
	server := newMockRelay(t)
	c := NewClient(server.URL, time.Second, 5*time.Second)

	msg := NewMessage(nil)
	err := c.StreamWS(context.Background(), &domain.ChatRequest{}, time.Second, msg)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.True(t, strings.Contains(remote.Message, "messages is required"))
	assert.Equal(t, domain.MessageStateErrored, msg.Snapshot().State)
}

func TestAgentBudgetFromRelay(t *testing.T) {
	server := newMockRelay(t)
	c := NewClient(server.URL, time.Second, 5*time.Second)

	list, err := c.Agents(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, len(agents.Default().List()))

	budget, err := c.Budget(context.Background(), "researcher")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, budget)

	for _, id := range []string{"nova-researcher", "nova-coder", "nova-browser", "nova-general"} {
		budget, err = c.Budget(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, agents.Default().Resolve(id).MaxResponseTime, budget, id)
	}

	budget, err = c.Budget(context.Background(), "no-such-agent")
	require.NoError(t, err)
	assert.Equal(t, DefaultBudget, budget)
}
