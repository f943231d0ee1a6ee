package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/visit"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID, limit, offset int) ([]*Payment, int, error)
	SumByVisit(ctx context.Context, visitID uuid.UUID) (int64, error)
}

type IntentRepository interface {
	Create(ctx context.Context, i *PaymentIntent) error
	GetByReference(ctx context.Context, ref string) (*PaymentIntent, error)
	GetByReferenceForUpdate(ctx context.Context, ref string) (*PaymentIntent, error)
	MarkVerified(ctx context.Context, id, paymentID uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason *string) error
}

// VisitSource is the slice of the visit repository payments need. GetForUpdate
// locks the visit row so payment writes serialize with visit closure.
type VisitSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
}
