// Package ws provides the WebSocket variant of the relay. Each inbound text
// frame is a chat request; each relay event goes out as one JSON text frame.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
	"github.com/mahirxmc/nova-agent-2/internal/service"
)

// ErrStreamActiveMessage is sent when a request arrives while a previous
// response on the same socket is still streaming.
const ErrStreamActiveMessage = "a response is already streaming on this connection"

// Handler upgrades relay WebSocket connections.
type Handler struct {
	service  *service.Service
	upgrader websocket.Upgrader

	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

// NewHandler creates a WebSocket handler with default timeouts.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   54 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/chat/ws", h.HandleWebSocket)
}

type connection struct {
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	// active holds the token of the relay that owns the connection, 0 when
	// idle. Releases compare against their own token so a finished relay
	// never frees a newer one.
	active atomic.Uint64
	tokens atomic.Uint64
}

func (c *connection) acquire() (uint64, bool) {
	token := c.tokens.Add(1)
	return token, c.active.CompareAndSwap(0, token)
}

func (c *connection) release(token uint64) {
	c.active.CompareAndSwap(token, 0)
}

// HandleWebSocket handles the upgrade and runs the connection until the
// client disconnects.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	wsConn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	// The request context ends when this handler returns; the connection
	// owns its own lifetime.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	conn := &connection{
		conn:   wsConn,
		send:   make(chan []byte, 64),
		ctx:    ctx,
		cancel: cancel,
	}
	wsConn.SetReadLimit(h.MaxMessageSize)

	go h.writePump(conn)
	h.readPump(conn)
	return nil
}

func (h *Handler) readPump(conn *connection) {
	defer func() {
		conn.cancel()
		conn.conn.Close()
	}()

	conn.conn.SetReadDeadline(time.Now().Add(h.ReadTimeout))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(h.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		conn.conn.SetReadDeadline(time.Now().Add(h.ReadTimeout))
		h.handleMessage(conn, message)
	}
}

func (h *Handler) writePump(conn *connection) {
	ticker := time.NewTicker(h.PingInterval)
	defer func() {
		ticker.Stop()
		conn.cancel()
		conn.conn.Close()
	}()

	for {
		select {
		case message := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-conn.ctx.Done():
			conn.conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
			conn.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleMessage starts one relay per inbound request. A connection relays at
// most one response at a time.
func (h *Handler) handleMessage(conn *connection, data []byte) {
	var req domain.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.emit(conn, domain.ErrorEvent("invalid request body"))
		return
	}
	token, ok := conn.acquire()
	if !ok {
		h.emit(conn, domain.ErrorEvent(ErrStreamActiveMessage))
		return
	}

	go func() {
		defer conn.release(token)

		sess, err := h.service.Open(conn.ctx, &req)
		if err != nil {
			h.emit(conn, domain.ErrorEvent(err.Error()))
			return
		}
		res := sess.Relay(conn.ctx, func(ev domain.RelayEvent) error {
			// The next request is accepted as soon as the terminal event is queued.
			if ev.Terminal() {
				conn.release(token)
			}
			return h.emit(conn, ev)
		})
		if res.Err != nil {
			log.Printf("relay %s ended with %s: %v", sess.ID, res.Outcome, res.Err)
		}
	}()
}

func (h *Handler) emit(conn *connection, ev domain.RelayEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case conn.send <- data:
		return nil
	case <-conn.ctx.Done():
		return conn.ctx.Err()
	}
}
