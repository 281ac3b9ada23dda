package authcore

import (
	"io"

	"github.com/quizcraft/authcore/internal/audit"
)

// AuditEvent is the structured audit record the engine emits for every
// security-relevant operation.
type AuditEvent = audit.Event

// AuditSink receives audit events. Events are relayed asynchronously; a
// slow sink never blocks an auth flow.
type AuditSink = audit.Sink

// NoOpAuditSink drops every event.
func NoOpAuditSink() AuditSink { return audit.NoOpSink{} }

// NewChannelAuditSink buffers events in a channel, mostly for tests and
// in-process consumers.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONAuditSink writes one JSON object per line to w.
func NewJSONAuditSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
