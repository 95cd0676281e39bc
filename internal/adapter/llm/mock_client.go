package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// MockClient is an offline provider. It writes an OpenAI-style byte stream
// into the same parser the real client uses.
type MockClient struct {
	// Delay is the pause between frames.
	Delay time.Duration
	// ChunkRunes is the number of runes per delta frame.
	ChunkRunes int
}

// NewMockClient creates a new mock provider.
func NewMockClient() *MockClient {
	return &MockClient{ChunkRunes: 10}
}

// OpenStream simulates a streaming response.
func (m *MockClient) OpenStream(ctx context.Context, req *ChatCompletionRequest) (*Stream, error) {
	frames := m.frames(req)

	pr, pw := io.Pipe()
	go func() {
		for _, f := range frames {
			if m.Delay > 0 {
				select {
				case <-ctx.Done():
					pw.CloseWithError(ctx.Err())
					return
				case <-time.After(m.Delay):
				}
			}
			if _, err := io.WriteString(pw, f); err != nil {
				return
			}
		}
		pw.Close()
	}()

	return NewStream(pr), nil
}

// ListModels returns a fixed list of mock models.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	now := time.Now().Unix()
	return []Model{
		{ID: "mock-llama-fast", Object: "model", Created: now, OwnedBy: "mock"},
		{ID: "mock-llama-large", Object: "model", Created: now, OwnedBy: "mock"},
	}, nil
}

func (m *MockClient) frames(req *ChatCompletionRequest) []string {
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	var out []string
	for _, part := range splitRunes(mockResponse(req), m.ChunkRunes) {
		data, _ := json.Marshal(StreamChunk{
			ID:      id,
			Model:   req.Model,
			Choices: []Choice{{Delta: &ChatMessage{Role: "assistant", Content: part}}},
		})
		out = append(out, "data: "+string(data)+"\n\n")
	}
	return append(out, "data: "+DoneSentinel+"\n\n")
}

func mockResponse(req *ChatCompletionRequest) string {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = req.Messages[i].Content
			break
		}
	}
	if last == "" {
		return "[MOCK] This is a mock response from the relay."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(last, 100))
}

// splitRunes splits s into pieces of at most n runes.
func splitRunes(s string, n int) []string {
	if n <= 0 {
		n = 10
	}
	var parts []string
	for len(s) > 0 {
		i, count := 0, 0
		for i < len(s) && count < n {
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			count++
		}
		parts = append(parts, s[:i])
		s = s[i:]
	}
	return parts
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxRunes]) + "..."
}
