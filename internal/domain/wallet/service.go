package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/visit"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/db"
)

type Service struct {
	repo     Repository
	visits   VisitSource
	txr      db.Runner
	sink     audit.Sink
	currency string
}

func NewService(repo Repository, visits VisitSource, txr db.Runner, currency string) *Service {
	return &Service{repo: repo, visits: visits, txr: txr, currency: currency}
}

// SetAuditSink attaches an optional audit sink.
func (s *Service) SetAuditSink(sink audit.Sink) {
	s.sink = sink
}

// EnsureWallet returns the patient's wallet, creating an empty one on first
// use. Calling it again for the same patient is a no-op.
func (s *Service) EnsureWallet(ctx context.Context, patientID uuid.UUID, actor auth.Actor) (*Wallet, error) {
	w, err := s.repo.GetByPatient(ctx, patientID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	w = &Wallet{PatientID: patientID, Balance: 0, Currency: s.currency}
	if err := s.repo.Create(ctx, w); err != nil {
		// Lost the race against a concurrent first use for the same
		// patient. Their wallet is the wallet.
		if errors.Is(err, errDuplicatePatient) {
			return s.repo.GetByPatient(ctx, patientID)
		}
		return nil, err
	}
	s.record(ctx, actor, "wallet.create", "wallet", uuid.Nil, w.ID, nil)
	return w, nil
}

func (s *Service) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Wallet, error) {
	return s.repo.GetByPatient(ctx, patientID)
}

// Credit tops up the wallet. The balance update and the transaction row
// commit together or not at all.
func (s *Service) Credit(ctx context.Context, walletID uuid.UUID, amount int64, note *string, actor auth.Actor) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var txn *Transaction
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		w, err := s.repo.GetForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		balance := w.Balance + amount
		if err := s.repo.UpdateBalance(ctx, walletID, balance); err != nil {
			return err
		}
		txn = &Transaction{
			WalletID:     walletID,
			Type:         TypeCredit,
			Amount:       amount,
			BalanceAfter: balance,
			Note:         note,
			CreatedBy:    actor.ID,
		}
		return s.repo.AppendTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "wallet.credit", "wallet_transaction", uuid.Nil, txn.ID, &amount)
	return txn, nil
}

// Debit spends wallet money against an open visit. Preconditions are checked
// in a fixed order so callers always see the most actionable failure first:
// amount, then visit reference, then visit state, then balance. The wallet
// row is locked for the check-then-decrement, so concurrent debits against
// the same wallet serialize and the balance can never go negative.
func (s *Service) Debit(ctx context.Context, walletID uuid.UUID, amount int64, visitID *uuid.UUID, note *string, actor auth.Actor) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if visitID == nil || *visitID == uuid.Nil {
		return nil, ErrMissingVisitReference
	}

	var txn *Transaction
	err := s.txr.InTx(ctx, func(ctx context.Context) error {
		// Lock the visit row too: a debit must not land between the
		// closure gate's balance check and the flip to closed.
		v, err := s.visits.GetForUpdate(ctx, *visitID)
		if err != nil {
			return err
		}
		if !v.Open() {
			return visit.ErrClosed
		}

		w, err := s.repo.GetForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if w.Balance < amount {
			return ErrInsufficientBalance
		}
		balance := w.Balance - amount
		if err := s.repo.UpdateBalance(ctx, walletID, balance); err != nil {
			return err
		}
		txn = &Transaction{
			WalletID:     walletID,
			Type:         TypeDebit,
			Amount:       amount,
			BalanceAfter: balance,
			VisitID:      visitID,
			Note:         note,
			CreatedBy:    actor.ID,
		}
		return s.repo.AppendTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "wallet.debit", "wallet_transaction", *visitID, txn.ID, &amount)
	return txn, nil
}

func (s *Service) Statement(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	if _, err := s.repo.GetByID(ctx, walletID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListTransactions(ctx, walletID, limit, offset)
}

// SumDebitsByVisit reports how much wallet money has funded a visit. The
// billing summary draws on this.
func (s *Service) SumDebitsByVisit(ctx context.Context, visitID uuid.UUID) (int64, error) {
	return s.repo.SumDebitsByVisit(ctx, visitID)
}

func (s *Service) record(ctx context.Context, actor auth.Actor, action, resourceType string, visitID, resourceID uuid.UUID, amount *int64) {
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
