package sse

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const readChunkSize = 4096

// Reader reads an event stream one transport chunk at a time.
//
// Bytes pass through a stateful UTF-8 decoder, so a multi-byte character split
// across two reads is held back until it is complete. Invalid sequences are
// replaced with U+FFFD.
type Reader struct {
	src    io.Reader
	frames *FrameBuffer
	chunk  []byte
}

// NewReader wraps r, splitting decoded text on delimiter.
func NewReader(r io.Reader, delimiter string) *Reader {
	return &Reader{
		src:    transform.NewReader(r, unicode.UTF8.NewDecoder()),
		frames: NewFrameBuffer(delimiter),
		chunk:  make([]byte, readChunkSize),
	}
}

// Next performs a single read and returns the records completed by it.
// Records may be returned together with a non-nil error, including io.EOF.
func (r *Reader) Next() ([]string, error) {
	n, err := r.src.Read(r.chunk)
	var records []string
	if n > 0 {
		records = r.frames.Feed(string(r.chunk[:n]))
	}
	return records, err
}

// Remainder returns the undelimited tail, meaningful once Next reported io.EOF.
func (r *Reader) Remainder() string {
	return r.frames.Remainder()
}
