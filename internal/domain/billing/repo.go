package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/visit"
)

// ChargeRepository is the append-only charge ledger. There is deliberately no
// update or delete: reversals are new rows.
type ChargeRepository interface {
	Append(ctx context.Context, c *Charge) error
	GetByID(ctx context.Context, id uuid.UUID) (*Charge, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID, limit, offset int) ([]*Charge, int, error)
	SumByVisit(ctx context.Context, visitID uuid.UUID) (int64, error)
	HasReversal(ctx context.Context, chargeID uuid.UUID) (bool, error)
}

type PolicyRepository interface {
	Create(ctx context.Context, p *InsurancePolicy) error
	GetByID(ctx context.Context, id uuid.UUID) (*InsurancePolicy, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*InsurancePolicy, error)
	UpdateApproval(ctx context.Context, id uuid.UUID, status ApprovalStatus, approvedAmount *int64) error
}

// VisitSource is the slice of the visit repository billing needs: existence
// and open/closed checks plus the derived payment status write-back.
// GetForUpdate locks the visit row so ledger writes serialize with closure.
type VisitSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, ps visit.PaymentStatus) error
}

// PaymentSource reports money collected through the payment module.
type PaymentSource interface {
	SumClearedByVisit(ctx context.Context, visitID uuid.UUID) (int64, error)
}

// WalletSource reports money collected through wallet debits.
type WalletSource interface {
	SumDebitsByVisit(ctx context.Context, visitID uuid.UUID) (int64, error)
}
