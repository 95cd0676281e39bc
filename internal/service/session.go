package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/mahirxmc/nova-agent-2/internal/adapter/llm"
	"github.com/mahirxmc/nova-agent-2/internal/domain"
	"github.com/mahirxmc/nova-agent-2/internal/observability"
)

// Emitter writes one relay event to the client.
type Emitter func(domain.RelayEvent) error

// ErrTerminated is returned when an event is emitted after the terminal one.
var ErrTerminated = errors.New("relay session already terminated")

// Session is one open upstream stream bound to one client.
type Session struct {
	ID             string
	Agent          domain.AgentProfile
	Model          string
	ConversationID string

	svc     *Service
	stream  *llm.Stream
	started time.Time
}

// Result summarizes a finished relay.
type Result struct {
	Outcome       string
	ContentEvents int
	SkippedFrames int
	Text          string
	Err           error
}

// guard lets through at most one terminal event and nothing after it.
type guard struct {
	emit       Emitter
	terminated bool
	err        error
}

func (g *guard) send(ev domain.RelayEvent) error {
	if g.err != nil {
		return g.err
	}
	if g.terminated {
		return ErrTerminated
	}
	if ev.Terminal() {
		g.terminated = true
	}
	if err := g.emit(ev); err != nil {
		g.err = err
		return err
	}
	return nil
}

// Relay pulls upstream events and emits relay events until exactly one
// terminal event has been written, the client goes away, or ctx ends. The
// upstream body is closed on return.
func (s *Session) Relay(ctx context.Context, emit Emitter) Result {
	defer s.stream.Close()

	m := s.svc.metrics
	m.StreamStarted()

	g := &guard{emit: emit}
	var res Result
	var text strings.Builder

	finish := func(outcome string, err error) Result {
		res.Outcome = outcome
		res.Err = err
		res.Text = text.String()
		m.StreamEnded(outcome, time.Since(s.started))
		s.recordEnd(ctx, res)
		return res
	}
	aborted := func(err error) Result {
		m.ClientDisconnected()
		return finish(observability.OutcomeAborted, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return aborted(err)
		}

		ev, err := s.stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if err := g.send(domain.DoneEvent()); err != nil {
					return aborted(err)
				}
				return finish(observability.OutcomeCompleted, nil)
			}
			if ctx.Err() != nil {
				return aborted(ctx.Err())
			}
			log.Printf("WARN: relay %s upstream failed mid-stream: %v", s.ID, err)
			if err := g.send(domain.ContentEvent(FallbackMessage)); err != nil {
				return aborted(err)
			}
			if err := g.send(domain.DoneEvent()); err != nil {
				return aborted(err)
			}
			return finish(observability.OutcomeFallback, err)
		}

		switch ev.Kind {
		case domain.UpstreamSkip:
			res.SkippedFrames++
			m.Skipped(ev.Reason)
		case domain.UpstreamDelta:
			if res.ContentEvents == 0 {
				m.FirstToken(time.Since(s.started))
			}
			if err := g.send(domain.ContentEvent(ev.Text)); err != nil {
				return aborted(err)
			}
			res.ContentEvents++
			m.Content()
			text.WriteString(ev.Text)
		case domain.UpstreamDone:
			if err := g.send(domain.DoneEvent()); err != nil {
				return aborted(err)
			}
			return finish(observability.OutcomeCompleted, nil)
		case domain.UpstreamFailure:
			if err := g.send(domain.ErrorEvent(ev.Text)); err != nil {
				return aborted(err)
			}
			return finish(observability.OutcomeFailed, errors.New(ev.Text))
		}
	}
}

// Close releases the upstream without relaying.
func (s *Session) Close() error {
	return s.stream.Close()
}
