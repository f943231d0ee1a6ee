package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence interface for visits.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	// GetForUpdate loads the visit with a row lock; must run inside a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, ps PaymentStatus) error
	Close(ctx context.Context, id uuid.UUID, closedBy string, closedAt time.Time) error
}
