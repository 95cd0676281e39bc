package chatclient

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

// WSPath is the relay's WebSocket endpoint.
const WSPath = "/v1/chat/ws"

// StreamWS is Stream over the WebSocket transport.
func (c *Client) StreamWS(ctx context.Context, req *domain.ChatRequest, budget time.Duration, msg *Message) error {
	return c.run(ctx, msg, budget, func(ctx context.Context) (source, error) {
		return c.openWS(ctx, req)
	})
}

type wsSource struct {
	conn *websocket.Conn
	stop func() bool
}

func (s *wsSource) next() ([]string, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	return []string{strings.TrimSpace(string(data))}, nil
}

func (s *wsSource) close() error {
	s.stop()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

func (c *Client) openWS(ctx context.Context, req *domain.ChatRequest) (source, error) {
	wsURL, err := websocketURL(c.baseURL)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, &StatusError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("websocket handshake failed: %v", err)}
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	// Closing the socket unblocks a pending read when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	if err := conn.WriteJSON(req); err != nil {
		stop()
		conn.Close()
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return &wsSource{conn: conn, stop: stop}, nil
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid relay url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + WSPath
	return u.String(), nil
}
