package pixvault

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent is one credential or account decision. Events never carry
// failure reasons for verification paths; only the boolean outcome.
type AuditEvent struct {
	Time     time.Time `json:"time"`
	Action   string    `json:"action"`
	Username string    `json:"username,omitempty"`
	OK       bool      `json:"ok"`
}

// AuditSink receives engine events. Emit must not block: the engine
// calls it inline on hot paths.
type AuditSink interface {
	Emit(AuditEvent)
}

// NoOpSink discards all events.
type NoOpSink struct{}

// Emit implements AuditSink.
func (NoOpSink) Emit(AuditEvent) {}

// JSONWriterSink writes one JSON object per event to w, serialized by an
// internal mutex so interleaved lines stay whole.
type JSONWriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONWriterSink creates a JSONWriterSink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{w: w}
}

// Emit implements AuditSink. Encoding errors are dropped; audit output
// must never fail an engine operation.
func (s *JSONWriterSink) Emit(ev AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = s.w.Write(data)
}
