package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// TimeFormat is the layout of the "time" field of every audit line.
const TimeFormat = "2006-01-02 15:04:05"

// jsonlHandler is a slog handler that writes one JSON object per line,
// with time in TimeFormat and without the level and message fields.
// All attributes are written at the top level of the object; groups are flattened.
type jsonlHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	attrs []slog.Attr
}

// newJSONLHandler creates a handler writing to out.
func newJSONLHandler(out io.Writer) *jsonlHandler {
	return &jsonlHandler{mu: &sync.Mutex{}, out: out}
}

// Handle serializes a record as a single JSON line.
func (h *jsonlHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, r.NumAttrs()+len(h.attrs)+1)
	fields["time"] = r.Time.Format(TimeFormat)

	add := func(a slog.Attr) bool {
		if a.Key != "" && a.Value.Any() != nil {
			fields[a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(append(data, '\n'))
	return err
}

func (h *jsonlHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &jsonlHandler{mu: h.mu, out: h.out, attrs: merged}
}

func (h *jsonlHandler) WithGroup(string) slog.Handler {
	return h
}

// Enabled always returns true: audit records are never filtered by level.
func (h *jsonlHandler) Enabled(context.Context, slog.Level) bool {
	return true
}
