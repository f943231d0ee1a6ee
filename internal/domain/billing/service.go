package billing

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
	charges  ChargeRepository
	policies PolicyRepository
	visits   VisitSource
	payments PaymentSource
	wallets  WalletSource
	txr      db.Runner
	sink     audit.Sink
}

func NewService(charges ChargeRepository, policies PolicyRepository, visits VisitSource, txr db.Runner) *Service {
	return &Service{charges: charges, policies: policies, visits: visits, txr: txr}
}

// SetFundingSources attaches the payment and wallet aggregates the summary
// draws on. Wired at startup once those modules exist.
func (s *Service) SetFundingSources(payments PaymentSource, wallets WalletSource) {
	s.payments = payments
	s.wallets = wallets
}

// SetAuditSink attaches an optional audit sink.
func (s *Service) SetAuditSink(sink audit.Sink) {
	s.sink = sink
}

// lockOpenVisit takes the visit row lock and checks the visit is still open.
// Ledger writers call it inside a transaction so they serialize with the
// closure gate, which holds the same lock while it re-derives the balance: a
// charge or policy cannot slip in between the gate's zero-balance check and
// the status flip to closed.
func (s *Service) lockOpenVisit(ctx context.Context, visitID uuid.UUID) (*visit.Visit, error) {
	v, err := s.visits.GetForUpdate(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if !v.Open() {
		return nil, visit.ErrClosed
	}
	return v, nil
}

// AddCharge appends a line item to the visit's charge ledger.
func (s *Service) AddCharge(ctx context.Context, visitID uuid.UUID, category ChargeCategory, amount int64, description *string, actor auth.Actor) (*Charge, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validCategories[category] {
		return nil, fmt.Errorf("unknown charge category %q", category)
	}

	c := &Charge{
		VisitID:     visitID,
		Category:    category,
		Amount:      amount,
		Description: description,
		CreatedBy:   actor.ID,
	}
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockOpenVisit(ctx, visitID); err != nil {
			return err
		}
		return s.charges.Append(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "charge.add", visitID, "charge", c.ID, &c.Amount)
	return c, nil
}

// ReverseCharge corrects a posted charge by appending a negative offsetting
// row. The original row is untouched; a charge can be reversed once, and a
// reversal row cannot itself be reversed.
func (s *Service) ReverseCharge(ctx context.Context, chargeID uuid.UUID, actor auth.Actor) (*Charge, error) {
	var rev *Charge
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		orig, err := s.charges.GetByID(ctx, chargeID)
		if err != nil {
			return err
		}
		if orig.ReversalOf != nil {
			return ErrAlreadyReversed
		}
		if _, err := s.lockOpenVisit(ctx, orig.VisitID); err != nil {
			return err
		}
		reversed, err := s.charges.HasReversal(ctx, chargeID)
		if err != nil {
			return err
		}
		if reversed {
			return ErrAlreadyReversed
		}

		desc := fmt.Sprintf("reversal of charge %s", orig.ID)
		rev = &Charge{
			VisitID:     orig.VisitID,
			Category:    orig.Category,
			Amount:      -orig.Amount,
			Description: &desc,
			ReversalOf:  &orig.ID,
			CreatedBy:   actor.ID,
		}
		return s.charges.Append(ctx, rev)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "charge.reverse", rev.VisitID, "charge", rev.ID, &rev.Amount)
	return rev, nil
}

func (s *Service) ListCharges(ctx context.Context, visitID uuid.UUID, limit, offset int) ([]*Charge, int, error) {
	if _, err := s.visits.GetByID(ctx, visitID); err != nil {
		return nil, 0, err
	}
	return s.charges.ListByVisit(ctx, visitID, limit, offset)
}

// AttachPolicy records an insurance policy against the visit, pending the
// insurer's decision.
func (s *Service) AttachPolicy(ctx context.Context, p *InsurancePolicy, actor auth.Actor) error {
	if p.ProviderName == "" || p.PolicyNumber == "" {
		return fmt.Errorf("provider_name and policy_number are required")
	}
	switch p.CoverageType {
	case CoverageFull:
	case CoveragePartial:
		if p.CoveragePercentage == nil || *p.CoveragePercentage < 1 || *p.CoveragePercentage > 100 {
			return fmt.Errorf("partial coverage requires a percentage between 1 and 100")
		}
	default:
		return fmt.Errorf("unknown coverage type %q", p.CoverageType)
	}
	if p.ApprovedAmount != nil && *p.ApprovedAmount <= 0 {
		return ErrInvalidAmount
	}

	p.ApprovalStatus = ApprovalPending
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockOpenVisit(ctx, p.VisitID); err != nil {
			return err
		}
		return s.policies.Create(ctx, p)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actor, "policy.attach", p.VisitID, "insurance_policy", p.ID, nil)
	return nil
}

// SetApproval records the insurer's decision. A decision is final: once a
// policy leaves pending it cannot be changed.
func (s *Service) SetApproval(ctx context.Context, policyID uuid.UUID, status ApprovalStatus, approvedAmount *int64, actor auth.Actor) (*InsurancePolicy, error) {
	if status != ApprovalApproved && status != ApprovalRejected {
		return nil, fmt.Errorf("approval status must be approved or rejected")
	}
	if approvedAmount != nil && *approvedAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	p, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if p.ApprovalStatus != ApprovalPending {
		return nil, ErrPolicyFinalized
	}
	if status == ApprovalRejected {
		approvedAmount = nil
	}
	if err := s.policies.UpdateApproval(ctx, policyID, status, approvedAmount); err != nil {
		return nil, err
	}
	p.ApprovalStatus = status
	p.ApprovedAmount = approvedAmount
	s.record(ctx, actor, "policy."+string(status), p.VisitID, "insurance_policy", p.ID, approvedAmount)
	return p, nil
}

func (s *Service) ListPolicies(ctx context.Context, visitID uuid.UUID) ([]*InsurancePolicy, error) {
	if _, err := s.visits.GetByID(ctx, visitID); err != nil {
		return nil, err
	}
	return s.policies.ListByVisit(ctx, visitID)
}

func (s *Service) derive(ctx context.Context, visitID uuid.UUID) (*Summary, error) {
	total, err := s.charges.SumByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	policies, err := s.policies.ListByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.SumClearedByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	debits, err := s.wallets.SumDebitsByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	return computeSummary(visitID, total, ResolveCoverage(total, policies), payments, debits), nil
}

// GetSummary derives the visit's financial summary from the ledgers. When the
// stored payment_status of an open visit has drifted from the derived one,
// the stored value is refreshed in passing.
func (s *Service) GetSummary(ctx context.Context, visitID uuid.UUID) (*Summary, error) {
	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	sum, err := s.derive(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.Open() && v.PaymentStatus != sum.PaymentStatus {
		_ = s.visits.UpdatePaymentStatus(ctx, visitID, sum.PaymentStatus)
	}
	return sum, nil
}

// OutstandingBalance re-derives what the patient still owes. The closure gate
// calls this inside its own transaction.
func (s *Service) OutstandingBalance(ctx context.Context, visitID uuid.UUID) (int64, error) {
	sum, err := s.derive(ctx, visitID)
	if err != nil {
		return 0, err
	}
	return sum.OutstandingBalance, nil
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
