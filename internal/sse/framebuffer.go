// Package sse implements the event-stream framing shared by the relay and its
// consumers: record serialization, stateful decoding and partial-frame buffering.
package sse

import "strings"

const (
	// DataPrefix starts every data record.
	DataPrefix = "data: "
	// RecordDelimiter terminates a record on the relay's own stream.
	RecordDelimiter = "\n\n"
	// LineDelimiter terminates a line on the provider stream.
	LineDelimiter = "\n"
)

// FrameBuffer accumulates decoded text and yields complete records.
//
// After every Feed the buffer holds at most one incomplete record, which is
// only ever re-prefixed onto the next chunk and never parsed on its own.
type FrameBuffer struct {
	delimiter string
	pending   string
}

// NewFrameBuffer creates a buffer splitting on delimiter.
func NewFrameBuffer(delimiter string) *FrameBuffer {
	return &FrameBuffer{delimiter: delimiter}
}

// Feed appends text and returns the records it completed, in order.
func (b *FrameBuffer) Feed(text string) []string {
	parts := strings.Split(b.pending+text, b.delimiter)
	b.pending = parts[len(parts)-1]
	return parts[:len(parts)-1]
}

// Remainder returns the incomplete tail held by the buffer.
func (b *FrameBuffer) Remainder() string {
	return b.pending
}

// Payload extracts the data payload of a record. ok is false for blank records
// and records that are not data records.
func Payload(record string) (payload string, ok bool) {
	record = strings.TrimSpace(record)
	if record == "" || !strings.HasPrefix(record, strings.TrimSpace(DataPrefix)) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(record, strings.TrimSpace(DataPrefix))), true
}
