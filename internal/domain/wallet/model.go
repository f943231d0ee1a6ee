package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Wallet maps to the wallets table. One wallet per patient; the balance is
// the only mutable column and is never allowed below zero.
type Wallet struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Balance   int64     `db:"balance" json:"balance"`
	Currency  string    `db:"currency" json:"currency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type TransactionType string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

// Transaction maps to the wallet_transactions table. Rows are immutable;
// BalanceAfter snapshots the balance the row left behind, so replaying the
// history reproduces every intermediate balance.
type Transaction struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	WalletID     uuid.UUID       `db:"wallet_id" json:"wallet_id"`
	Type         TransactionType `db:"type" json:"type"`
	Amount       int64           `db:"amount" json:"amount"`
	BalanceAfter int64           `db:"balance_after" json:"balance_after"`
	VisitID      *uuid.UUID      `db:"visit_id" json:"visit_id,omitempty"`
	Note         *string         `db:"note" json:"note,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
