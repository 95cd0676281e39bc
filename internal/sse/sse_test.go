package sse

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var records []string
	for i := 0; i < 10000; i++ {
		got, err := r.Next()
		records = append(records, got...)
		if errors.Is(err, io.EOF) {
			return records
		}
		require.NoError(t, err)
	}
	t.Fatalf("reader did not reach EOF")
	return nil
}

func TestFrameBufferKeepsPartialRecord(t *testing.T) {
	b := NewFrameBuffer(RecordDelimiter)

	assert.Empty(t, b.Feed(`data: {"content":"Hel`))
	assert.Equal(t, `data: {"content":"Hel`, b.Remainder())

	got := b.Feed("lo\"}\n")
	assert.Empty(t, got)

	got = b.Feed("\ndata: {\"done\":true}\n\ndata: {")
	assert.Equal(t, []string{`data: {"content":"Hello"}`, `data: {"done":true}`}, got)
	assert.Equal(t, "data: {", b.Remainder())
}

func TestFrameBufferEmptyRemainderAfterDelimiter(t *testing.T) {
	b := NewFrameBuffer(LineDelimiter)
	got := b.Feed("a\nb\n")
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, "", b.Remainder())
}

func TestReaderOneByteChunksPreserveMultibyteText(t *testing.T) {
	input := "data: {\"content\":\"héllo wörld 你好 🚀\"}\n\ndata: {\"done\":true}\n\n"
	r := NewReader(iotest.OneByteReader(strings.NewReader(input)), RecordDelimiter)

	records := readAll(t, r)
	require.Len(t, records, 2)
	assert.Equal(t, "data: {\"content\":\"héllo wörld 你好 🚀\"}", records[0])
	assert.Equal(t, "data: {\"done\":true}", records[1])
	assert.Equal(t, "", r.Remainder())
}

func TestReaderReplacesInvalidBytes(t *testing.T) {
	input := []byte("data: a\xffb\n")
	r := NewReader(bytes.NewReader(input), LineDelimiter)

	records := readAll(t, r)
	require.Len(t, records, 1)
	assert.Equal(t, "data: a�b", records[0])
}

func TestReaderReportsRemainderAtEOF(t *testing.T) {
	r := NewReader(strings.NewReader("data: one\ndata: [DONE]"), LineDelimiter)

	records := readAll(t, r)
	assert.Equal(t, []string{"data: one"}, records)
	assert.Equal(t, "data: [DONE]", r.Remainder())
}

func TestPayload(t *testing.T) {
	cases := []struct {
		record  string
		payload string
		ok      bool
	}{
		{record: `data: {"done":true}`, payload: `{"done":true}`, ok: true},
		{record: "  data:{}  ", payload: "{}", ok: true},
		{record: "", ok: false},
		{record: ": keepalive", ok: false},
		{record: "event: ping", ok: false},
	}
	for _, tc := range cases {
		payload, ok := Payload(tc.record)
		assert.Equal(t, tc.ok, ok, tc.record)
		assert.Equal(t, tc.payload, payload, tc.record)
	}
}

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() { f.flushes++ }

func TestWriteEventFramesAndFlushes(t *testing.T) {
	w := &flushRecorder{}
	require.NoError(t, WriteEvent(w, map[string]string{"content": "hi"}))
	require.NoError(t, WriteEvent(w, map[string]bool{"done": true}))

	assert.Equal(t, "data: {\"content\":\"hi\"}\n\ndata: {\"done\":true}\n\n", w.String())
	assert.Equal(t, 2, w.flushes)
}
