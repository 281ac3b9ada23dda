package pgstore

import (
	"context"
	"encoding/json"

	"github.com/quizcraft/authcore"
)

// AuditSink implements authcore.AuditSink by inserting one row per event.
// Pair it with the engine's async dispatcher so database latency stays off
// the request path.
type AuditSink struct {
	db DBTX

	// OnError, when set, receives insert failures. Audit writes are
	// fire-and-forget, so without a hook failures are dropped silently.
	OnError func(error)
}

// NewAuditSink constructs a durable audit sink bound to the given DBTX.
func NewAuditSink(db DBTX) *AuditSink {
	return &AuditSink{db: db}
}

func (s *AuditSink) Emit(ctx context.Context, ev authcore.AuditEvent) {
	var metadata []byte
	if len(ev.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(ev.Metadata)
		if err != nil {
			s.fail(err)
			return
		}
	}

	query := `
		INSERT INTO audit_events (occurred_at, action, user_id, success, error_code, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		ev.Timestamp, ev.Action, ev.UserID, ev.Success, ev.Error, ev.IP, ev.UserAgent, metadata)
	if err != nil {
		s.fail(err)
	}
}

func (s *AuditSink) fail(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}
