package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahirxmc/nova-agent-2/internal/adapter/llm"
	"github.com/mahirxmc/nova-agent-2/internal/agents"
	"github.com/mahirxmc/nova-agent-2/internal/domain"
	store "github.com/mahirxmc/nova-agent-2/internal/repository"
	"github.com/mahirxmc/nova-agent-2/internal/service"
	"github.com/mahirxmc/nova-agent-2/internal/testutil"
)

func dial(t *testing.T, provider llm.Provider) *websocket.Conn {
	t.Helper()
	return dialWithStore(t, provider, nil)
}

func dialWithStore(t *testing.T, provider llm.Provider, st store.Store) *websocket.Conn {
	t.Helper()
	svc := service.New(provider, agents.Default(), nil, st, nil, service.Options{DefaultModel: "mock"})
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readUntilTerminal(t *testing.T, conn *websocket.Conn) []domain.RelayEvent {
	t.Helper()
	var events []domain.RelayEvent
	for {
		var ev domain.RelayEvent
		require.NoError(t, conn.ReadJSON(&ev))
		events = append(events, ev)
		if ev.Terminal() {
			return events
		}
	}
}

func TestWebSocketRelaysOneFramePerEvent(t *testing.T) {
	conn := dial(t, llm.NewMockClient())

	req := domain.ChatRequest{Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}}
	require.NoError(t, conn.WriteJSON(req))

	events := readUntilTerminal(t, conn)
	require.Greater(t, len(events), 1)
	assert.True(t, events[len(events)-1].Done)

	var text strings.Builder
	for _, ev := range events[:len(events)-1] {
		text.WriteString(ev.Content)
	}
	assert.Equal(t, `[MOCK] Received your message: "hi". This is a mock response.`, text.String())

	// The connection stays open for the next request.
	require.NoError(t, conn.WriteJSON(req))
	events = readUntilTerminal(t, conn)
	assert.True(t, events[len(events)-1].Done)
}

func TestWebSocketInvalidFrames(t *testing.T) {
	conn := dial(t, llm.NewMockClient())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	events := readUntilTerminal(t, conn)
	assert.Equal(t, []domain.RelayEvent{domain.ErrorEvent("invalid request body")}, events)

	require.NoError(t, conn.WriteJSON(domain.ChatRequest{}))
	events = readUntilTerminal(t, conn)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Error, "messages is required")
}

func TestWebSocketRejectsConcurrentRequest(t *testing.T) {
	mock := llm.NewMockClient()
	mock.ChunkRunes = 1
	mock.Delay = 20 * time.Millisecond
	conn := dial(t, mock)

	req := domain.ChatRequest{Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}}
	require.NoError(t, conn.WriteJSON(req))

	// Wait for the first content frame so the relay is known to be active.
	var first domain.RelayEvent
	require.NoError(t, conn.ReadJSON(&first))
	require.NotEmpty(t, first.Content)

	require.NoError(t, conn.WriteJSON(req))

	var rejected, done bool
	for !done {
		var ev domain.RelayEvent
		require.NoError(t, conn.ReadJSON(&ev))
		switch {
		case ev.Error == ErrStreamActiveMessage:
			rejected = true
		case ev.Done:
			done = true
		}
	}
	assert.True(t, rejected)
}

// slowEndStore delays recording the end of a session, which runs after the
// terminal event has been sent.
type slowEndStore struct {
	*store.SQLiteStore
	delay time.Duration
}

func (s *slowEndStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	if event.Type == domain.EventTypeRelayCompleted {
		time.Sleep(s.delay)
	}
	return s.SQLiteStore.CreateEvent(ctx, event)
}

func TestWebSocketFinishedRelayDoesNotFreeNextOne(t *testing.T) {
	mock := llm.NewMockClient()
	mock.ChunkRunes = 1
	mock.Delay = 15 * time.Millisecond
	st := &slowEndStore{SQLiteStore: testutil.NewTestSQLiteStore(t), delay: 300 * time.Millisecond}
	conn := dialWithStore(t, mock, st)
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	req := domain.ChatRequest{Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}}
	require.NoError(t, conn.WriteJSON(req))
	events := readUntilTerminal(t, conn)
	require.True(t, events[len(events)-1].Done)

	// The second relay starts while the first is still recording its end.
	require.NoError(t, conn.WriteJSON(req))
	time.Sleep(400 * time.Millisecond)
	require.NoError(t, conn.WriteJSON(req))

	var rejected bool
	var done bool
	for !done {
		var ev domain.RelayEvent
		require.NoError(t, conn.ReadJSON(&ev))
		switch {
		case ev.Error == ErrStreamActiveMessage:
			rejected = true
		case ev.Done:
			done = true
		}
	}
	assert.True(t, rejected, "third request must be rejected while the second streams")

	// Nothing else may be streaming once the second relay is done.
	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var extra domain.RelayEvent
	assert.Error(t, conn.ReadJSON(&extra), "unexpected frame %+v", extra)
}
