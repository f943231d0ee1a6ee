package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/visit"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/db"
)

type Service struct {
	payments PaymentRepository
	intents  IntentRepository
	visits   VisitSource
	txr      db.Runner
	sink     audit.Sink
}

func NewService(payments PaymentRepository, intents IntentRepository, visits VisitSource, txr db.Runner) *Service {
	return &Service{payments: payments, intents: intents, visits: visits, txr: txr}
}

// SetAuditSink attaches an optional audit sink.
func (s *Service) SetAuditSink(sink audit.Sink) {
	s.sink = sink
}

// lockOpenVisit takes the visit row lock and checks the visit is still open.
// Called inside a transaction so payment writes serialize with the closure
// gate, which holds the same lock while it re-derives the balance.
func (s *Service) lockOpenVisit(ctx context.Context, visitID uuid.UUID) error {
	v, err := s.visits.GetForUpdate(ctx, visitID)
	if err != nil {
		return err
	}
	if !v.Open() {
		return visit.ErrClosed
	}
	return nil
}

// RecordPayment books over-the-counter money against an open visit. Gateway
// payments do not come through here; they are created by verifying an intent.
func (s *Service) RecordPayment(ctx context.Context, visitID uuid.UUID, amount int64, method Method, reference *string, actor auth.Actor) (*Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if method != MethodCash && method != MethodCard {
		return nil, fmt.Errorf("method must be cash or card, got %q", method)
	}

	p := &Payment{
		VisitID:    visitID,
		Amount:     amount,
		Method:     method,
		Reference:  reference,
		ReceivedBy: actor.ID,
	}
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		if err := s.lockOpenVisit(ctx, visitID); err != nil {
			return err
		}
		return s.payments.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "payment.record", visitID, "payment", p.ID, &p.Amount)
	return p, nil
}

// InitializeIntent registers an expected gateway payment before the provider
// redirect. The reference is unique for all time; reusing one is an error.
func (s *Service) InitializeIntent(ctx context.Context, visitID uuid.UUID, gatewayReference string, amount int64, actor auth.Actor) (*PaymentIntent, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if gatewayReference == "" {
		return nil, fmt.Errorf("gateway_reference is required")
	}

	i := &PaymentIntent{
		VisitID:          visitID,
		GatewayReference: gatewayReference,
		Amount:           amount,
		Status:           IntentInitialized,
	}
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		if err := s.lockOpenVisit(ctx, visitID); err != nil {
			return err
		}
		return s.intents.Create(ctx, i)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "payment_intent.initialize", visitID, "payment_intent", i.ID, &i.Amount)
	return i, nil
}

// VerifyIntent consumes the provider's final webhook payload. The intent row
// is locked so concurrent webhook deliveries for the same reference
// serialize; the first settles the intent, replays with the same outcome
// return the already-recorded result, and replays with a conflicting outcome
// are rejected. A successful verification creates exactly one Payment in the
// same transaction.
func (s *Service) VerifyIntent(ctx context.Context, gatewayReference string, success bool, failureReason *string, actor auth.Actor) (*PaymentIntent, error) {
	var out *PaymentIntent
	var settled bool
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		i, err := s.intents.GetByReferenceForUpdate(ctx, gatewayReference)
		if err != nil {
			return err
		}

		switch i.Status {
		case IntentVerified:
			if !success {
				return fmt.Errorf("%w: %s already verified", ErrDuplicateGatewayReference, gatewayReference)
			}
			out = i
			return nil
		case IntentFailed:
			if success {
				return fmt.Errorf("%w: %s already failed", ErrDuplicateGatewayReference, gatewayReference)
			}
			out = i
			return nil
		}

		if !success {
			if err := s.intents.MarkFailed(ctx, i.ID, failureReason); err != nil {
				return err
			}
			i.Status = IntentFailed
			i.FailureReason = failureReason
			out = i
			settled = true
			return nil
		}

		if err := s.lockOpenVisit(ctx, i.VisitID); err != nil {
			return err
		}
		p := &Payment{
			VisitID:    i.VisitID,
			Amount:     i.Amount,
			Method:     MethodGateway,
			Reference:  &i.GatewayReference,
			ReceivedBy: actor.ID,
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return err
		}
		if err := s.intents.MarkVerified(ctx, i.ID, p.ID); err != nil {
			return err
		}
		i.Status = IntentVerified
		i.PaymentID = &p.ID
		out = i
		settled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		action := "payment_intent.verify"
		if out.Status == IntentFailed {
			action = "payment_intent.fail"
		}
		s.record(ctx, actor, action, out.VisitID, "payment_intent", out.ID, &out.Amount)
	}
	return out, nil
}

// IntentPayment returns the Payment created by a verified intent.
func (s *Service) IntentPayment(ctx context.Context, gatewayReference string) (*Payment, error) {
	i, err := s.intents.GetByReference(ctx, gatewayReference)
	if err != nil {
		return nil, err
	}
	if i.Status != IntentVerified || i.PaymentID == nil {
		return nil, ErrIntentNotVerified
	}
	return s.payments.GetByID(ctx, *i.PaymentID)
}

func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	if _, err := s.visits.GetByID(ctx, visitID); err != nil {
		return nil, 0, err
	}
	return s.payments.ListByVisit(ctx, visitID, limit, offset)
}

// SumClearedByVisit reports settled money for a visit. The billing summary
// draws on this.
func (s *Service) SumClearedByVisit(ctx context.Context, visitID uuid.UUID) (int64, error) {
	return s.payments.SumByVisit(ctx, visitID)
}

func (s *Service) record(ctx context.Context, actor auth.Actor, action string, visitID uuid.UUID, resourceType string, resourceID uuid.UUID, amount *int64) {
	if s.sink == nil {
		return
	}
	_ = s.sink.Record(ctx, audit.Event{
		Actor:        actor,
		Action:       action,
		VisitID:      visitID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Amount:       amount,
	})
}
