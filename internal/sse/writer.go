package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// WriteEvent writes v as a single `data: <json>\n\n` record and flushes w when
// it supports flushing.
func WriteEvent(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s%s%s", DataPrefix, data, RecordDelimiter); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
