package goImpersonate

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// AuditSink observes every audit record the engine produces, in addition to
// the authoritative durable writes. Sinks receive records asynchronously via
// the engine's dispatcher and must not block for long.
type AuditSink interface {
	Emit(ctx context.Context, rec AuditRecord)
}

// NoOpSink is an [AuditSink] that silently discards all records.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditRecord) {}

// ChannelSink is a buffered channel-based [AuditSink] for callers that want
// to consume the audit stream themselves.
type ChannelSink struct {
	records chan AuditRecord
}

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		records: make(chan AuditRecord, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, rec AuditRecord) {
	select {
	case s.records <- rec:
	case <-ctx.Done():
	}
}

// Records returns the receive side of the sink.
func (s *ChannelSink) Records() <-chan AuditRecord {
	return s.records
}

// JSONWriterSink is an [AuditSink] that writes one JSON-encoded record per
// line to an [io.Writer].
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, rec AuditRecord) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
