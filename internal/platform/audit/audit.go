package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

// Event is one audit record. Every mutating billing operation produces exactly
// one, carrying who did what to which resource and, for money movements, the
// amount in minor units.
type Event struct {
	Actor        auth.Actor
	Action       string // e.g. "charge.create", "wallet.debit"
	VisitID      uuid.UUID
	ResourceType string
	ResourceID   uuid.UUID
	Amount       *int64
	Timestamp    time.Time
}

// Sink persists audit events. Failures must not abort the business operation;
// callers log and continue.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Record(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// LogSink writes audit events as structured zerolog records.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	evt := s.logger.Info().
		Str("type", "audit").
		Str("actor_id", e.Actor.ID).
		Str("actor_role", string(e.Actor.Role)).
		Str("action", e.Action).
		Str("resource_type", e.ResourceType).
		Time("ts", e.Timestamp)
	if e.VisitID != uuid.Nil {
		evt = evt.Str("visit_id", e.VisitID.String())
	}
	if e.ResourceID != uuid.Nil {
		evt = evt.Str("resource_id", e.ResourceID.String())
	}
	if e.Amount != nil {
		evt = evt.Int64("amount", *e.Amount)
	}
	evt.Msg("audit_event")
	return nil
}
