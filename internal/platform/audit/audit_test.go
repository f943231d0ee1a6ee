package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

func TestLogSinkRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	amount := int64(2500)
	visitID := uuid.New()
	e := Event{
		Actor:        auth.Actor{ID: "u-1", Role: auth.RoleBilling},
		Action:       "charge.create",
		VisitID:      visitID,
		ResourceType: "charge",
		ResourceID:   uuid.New(),
		Amount:       &amount,
	}
	if err := sink.Record(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if rec["action"] != "charge.create" {
		t.Errorf("expected action charge.create, got %v", rec["action"])
	}
	if rec["actor_role"] != "billing" {
		t.Errorf("expected actor_role billing, got %v", rec["actor_role"])
	}
	if rec["visit_id"] != visitID.String() {
		t.Errorf("expected visit_id %s, got %v", visitID, rec["visit_id"])
	}
	if rec["amount"] != float64(2500) {
		t.Errorf("expected amount 2500, got %v", rec["amount"])
	}
}

func TestSinkFunc(t *testing.T) {
	var got Event
	sink := SinkFunc(func(_ context.Context, e Event) error {
		got = e
		return nil
	})
	if err := sink.Record(context.Background(), Event{Action: "visit.close"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Action != "visit.close" {
		t.Errorf("expected visit.close, got %s", got.Action)
	}
}
