package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
	"github.com/mahirxmc/nova-agent-2/internal/sse"
)

// DoneSentinel terminates a provider stream.
const DoneSentinel = "[DONE]"

// Stream yields parsed provider events from a response body.
type Stream struct {
	body    io.ReadCloser
	reader  *sse.Reader
	pending []domain.UpstreamEvent
	err     error
}

// NewStream wraps a streaming response body.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body:   body,
		reader: sse.NewReader(body, sse.LineDelimiter),
	}
}

// Next returns the next event. Skip events are returned so callers can
// account for them. After Done or a Failure, and at the end of the body, Next
// returns io.EOF. Any other error is a transport failure.
func (s *Stream) Next() (domain.UpstreamEvent, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			if ev.Kind == domain.UpstreamDone || ev.Kind == domain.UpstreamFailure {
				s.pending = nil
				s.err = io.EOF
			}
			return ev, nil
		}
		if s.err != nil {
			return domain.UpstreamEvent{}, s.err
		}

		lines, err := s.reader.Next()
		for _, line := range lines {
			s.queue(line)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			s.queue(s.reader.Remainder())
			s.err = io.EOF
		} else {
			s.err = fmt.Errorf("failed to read stream: %w", err)
		}
	}
}

// Close releases the response body.
func (s *Stream) Close() error {
	return s.body.Close()
}

func (s *Stream) queue(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	s.pending = append(s.pending, ParseLine(line))
}

// ParseLine converts one provider line into an event.
func ParseLine(line string) domain.UpstreamEvent {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, sse.DataPrefix) {
		return domain.UpstreamEvent{Kind: domain.UpstreamSkip, Reason: domain.SkipNotData}
	}
	data := strings.TrimPrefix(line, sse.DataPrefix)
	if strings.TrimSpace(data) == DoneSentinel {
		return domain.UpstreamEvent{Kind: domain.UpstreamDone}
	}

	var chunk StreamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return domain.UpstreamEvent{Kind: domain.UpstreamSkip, Reason: domain.SkipMalformedJSON}
	}
	if chunk.Error != nil && chunk.Error.Message != "" {
		return domain.UpstreamEvent{Kind: domain.UpstreamFailure, Text: chunk.Error.Message}
	}
	if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil && chunk.Choices[0].Delta.Content != "" {
		return domain.UpstreamEvent{Kind: domain.UpstreamDelta, Text: chunk.Choices[0].Delta.Content}
	}
	return domain.UpstreamEvent{Kind: domain.UpstreamSkip, Reason: domain.SkipEmptyDelta}
}
