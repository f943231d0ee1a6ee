package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/visit"
)

type Repository interface {
	Create(ctx context.Context, w *Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Wallet, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Wallet, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance int64) error
	AppendTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Transaction, int, error)
	SumDebitsByVisit(ctx context.Context, visitID uuid.UUID) (int64, error)
}

// VisitSource is the slice of the visit repository the debit path needs.
// GetForUpdate locks the visit row so debits serialize with visit closure.
type VisitSource interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
}
