package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/db"
)

// BillingGate re-derives the patient's outstanding balance for a visit. It is
// implemented by the billing service and wired in at startup; the closure gate
// calls it inside its own transaction so the decision and the status flip see
// one consistent snapshot.
type BillingGate interface {
	OutstandingBalance(ctx context.Context, visitID uuid.UUID) (int64, error)
}

type Service struct {
	repo Repository
	gate BillingGate
	txr  db.Runner
	sink audit.Sink
}

func NewService(repo Repository, txr db.Runner) *Service {
	return &Service{repo: repo, txr: txr}
}

// SetBillingGate attaches the outstanding-balance oracle used by closure.
func (s *Service) SetBillingGate(gate BillingGate) {
	s.gate = gate
}

// SetAuditSink attaches an optional audit sink.
func (s *Service) SetAuditSink(sink audit.Sink) {
	s.sink = sink
}

func (s *Service) CreateVisit(ctx context.Context, v *Visit, actor auth.Actor) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	v.Status = StatusOpen
	v.PaymentStatus = PaymentPending
	if v.StartedAt.IsZero() {
		v.StartedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return err
	}
	if s.sink != nil {
		_ = s.sink.Record(ctx, audit.Event{
			Actor:        actor,
			Action:       "visit.create",
			VisitID:      v.ID,
			ResourceType: "visit",
			ResourceID:   v.ID,
		})
	}
	return nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListVisitsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// CanClose evaluates the closure gate without mutating anything.
func (s *Service) CanClose(ctx context.Context, id uuid.UUID) (*ClosureCheck, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.Open() {
		return &ClosureCheck{CanClose: false, Reason: "visit already closed"}, nil
	}

	outstanding, err := s.gate.OutstandingBalance(ctx, id)
	if err != nil {
		return nil, err
	}
	check := &ClosureCheck{Outstanding: outstanding}
	if outstanding > 0 {
		check.Reason = "outstanding balance must be settled before closure"
	} else {
		check.CanClose = true
	}
	return check, nil
}

// CloseVisit transitions OPEN -> CLOSED. The visit row is locked and the
// outstanding balance re-derived inside the same transaction, so a payment
// racing the closure cannot slip between check and flip.
func (s *Service) CloseVisit(ctx context.Context, id uuid.UUID, actor auth.Actor) (*Visit, error) {
	var closed *Visit
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		v, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !v.Open() {
			return ErrClosed
		}

		outstanding, err := s.gate.OutstandingBalance(ctx, id)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return fmt.Errorf("%w: %d outstanding", ErrOutstandingBalance, outstanding)
		}

		now := time.Now().UTC()
		if err := s.repo.Close(ctx, id, actor.ID, now); err != nil {
			return err
		}
		v.Status = StatusClosed
		v.PaymentStatus = PaymentCleared
		v.ClosedAt = &now
		closedBy := actor.ID
		v.ClosedBy = &closedBy
		closed = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.sink != nil {
		_ = s.sink.Record(ctx, audit.Event{
			Actor:        actor,
			Action:       "visit.close",
			VisitID:      id,
			ResourceType: "visit",
			ResourceID:   id,
		})
	}
	return closed, nil
}
