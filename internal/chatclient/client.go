package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
	"github.com/mahirxmc/nova-agent-2/internal/sse"
)

// ChatPath is the relay's SSE endpoint.
const ChatPath = "/v1/chat/stream"

// Finalization texts.
const (
	NoResponseText     = "No response received."
	TimeoutText        = "Response timed out. Please try again."
	TimeoutAnnotation  = "\n\n[Response timed out]"
	StreamFailureText  = "Error: Failed to process streaming response. Please try again."
	errorPrefix        = "Error: "
	errorSeparator     = "\n\n"
	maxErrorBodyLength = 4096
)

var (
	// ErrRequestTimeout is the cause when the total request budget elapses.
	ErrRequestTimeout = errors.New("request timed out")
	// ErrStreamTimeout is the cause when the stream window elapses before a
	// terminal record.
	ErrStreamTimeout = errors.New("stream timed out")
	// ErrMessageInUse is returned when a message is streamed twice.
	ErrMessageInUse = errors.New("message already used")
)

// StatusError is returned when the relay refuses a request.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay error [%d]: %s", e.StatusCode, e.Message)
}

// RemoteError is returned when the stream ends with an error record.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Client streams chat responses from a relay.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	grace        time.Duration
	streamWindow time.Duration
}

// NewClient creates a relay client. The request budget of a call is the
// agent's response time plus grace; streamWindow bounds the time from stream
// start to a terminal record.
func NewClient(baseURL string, grace, streamWindow time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{},
		grace:        grace,
		streamWindow: streamWindow,
	}
}

// source yields JSON payloads of relay events.
type source interface {
	next() ([]string, error)
	close() error
}

type opener func(ctx context.Context) (source, error)

// Stream sends req over SSE and applies the response to msg. It returns nil
// when the message completed; otherwise the error explains the terminal
// state. msg is terminal on return in every case.
func (c *Client) Stream(ctx context.Context, req *domain.ChatRequest, budget time.Duration, msg *Message) error {
	return c.run(ctx, msg, budget, func(ctx context.Context) (source, error) {
		return c.openSSE(ctx, req)
	})
}

// run drives msg through Sending and Streaming to a terminal state. It is the
// only writer of msg; timers and cancellation only cancel ctx.
func (c *Client) run(parent context.Context, msg *Message, budget time.Duration, open opener) error {
	if !msg.transition(domain.MessageStateIdle, domain.MessageStateSending) {
		return ErrMessageInUse
	}

	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	total := time.AfterFunc(budget+c.grace, func() { cancel(ErrRequestTimeout) })
	defer total.Stop()

	src, err := open(ctx)
	if err != nil {
		return c.fail(ctx, msg, err)
	}
	defer src.close()

	msg.transition(domain.MessageStateSending, domain.MessageStateStreaming)
	window := time.AfterFunc(c.streamWindow, func() { cancel(ErrStreamTimeout) })
	defer window.Stop()

	for {
		payloads, err := src.next()
		for _, p := range payloads {
			if done, result := apply(msg, p); done {
				return result
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			text := msg.Text()
			if text == "" {
				text = NoResponseText
			}
			msg.Finalize(domain.MessageStateCompleted, text, "", true)
			return nil
		}
		return c.fail(ctx, msg, err)
	}
}

// apply handles one record payload and reports whether the stream is over.
func apply(msg *Message, payload string) (bool, error) {
	if payload == "" || payload == "{}" {
		return false, nil
	}
	var ev domain.RelayEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("WARN: skipping malformed stream record: %v", err)
		return false, nil
	}

	switch {
	case ev.Done:
		msg.Finalize(domain.MessageStateCompleted, msg.Text(), "", true)
		return true, nil
	case ev.Content != "":
		msg.Append(ev.Content)
		return false, nil
	case ev.Error != "":
		text := errorPrefix + ev.Error
		if acc := msg.Text(); acc != "" {
			text = acc + errorSeparator + text
		}
		msg.Finalize(domain.MessageStateErrored, text, ev.Error, true)
		return true, &RemoteError{Message: ev.Error}
	}
	return false, nil
}

// fail finalizes msg after the transport stopped early.
func (c *Client) fail(ctx context.Context, msg *Message, err error) error {
	cause := context.Cause(ctx)
	acc := msg.Text()

	switch {
	case errors.Is(cause, ErrRequestTimeout) || errors.Is(cause, ErrStreamTimeout):
		text := TimeoutText
		if acc != "" {
			text = acc + TimeoutAnnotation
		}
		msg.Finalize(domain.MessageStateTimedOut, text, cause.Error(), true)
		return cause

	case cause != nil:
		// Cancelled by the caller: freeze without reporting.
		msg.Finalize(domain.MessageStateCancelled, acc, "", false)
		return cause
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		msg.Finalize(domain.MessageStateErrored, errorPrefix+statusErr.Message, statusErr.Message, true)
		return err
	}

	log.Printf("WARN: stream failed: %v", err)
	text := acc
	if text == "" {
		text = StreamFailureText
	}
	msg.Finalize(domain.MessageStateErrored, text, err.Error(), true)
	return err
}

type sseSource struct {
	body   io.ReadCloser
	reader *sse.Reader
}

func (s *sseSource) next() ([]string, error) {
	records, err := s.reader.Next()
	payloads := make([]string, 0, len(records))
	for _, r := range records {
		if p, ok := sse.Payload(r); ok {
			payloads = append(payloads, p)
		}
	}
	return payloads, err
}

func (s *sseSource) close() error {
	return s.body.Close()
}

func (c *Client) openSSE(ctx context.Context, req *domain.ChatRequest) (source, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	return &sseSource{body: resp.Body, reader: sse.NewReader(resp.Body, sse.RecordDelimiter)}, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
