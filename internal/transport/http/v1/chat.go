package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mahirxmc/nova-agent-2/internal/adapter/llm"
	"github.com/mahirxmc/nova-agent-2/internal/domain"
	"github.com/mahirxmc/nova-agent-2/internal/sse"
)

// HeaderSessionID carries the relay session id on stream responses.
const HeaderSessionID = "X-Relay-Session-Id"

// UpstreamErrorResponse is returned with 502 when the provider refuses a
// request before streaming starts.
type UpstreamErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

// ChatStream relays a chat request as an SSE stream.
// POST /v1/chat/stream
func (h *Handler) ChatStream(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	sess, err := h.service.Open(ctx, &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		resp := UpstreamErrorResponse{Error: err.Error()}
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			resp.UpstreamStatus = statusErr.StatusCode
			resp.UpstreamBody = statusErr.Body
		}
		return c.JSON(http.StatusBadGateway, resp)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(HeaderSessionID, sess.ID)
	w.WriteHeader(http.StatusOK)
	w.Flush()

	res := sess.Relay(ctx, func(ev domain.RelayEvent) error {
		return sse.WriteEvent(w, ev)
	})
	if res.Err != nil {
		log.Printf("relay %s ended with %s: %v", sess.ID, res.Outcome, res.Err)
	}
	return nil
}
