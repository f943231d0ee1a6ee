package wallet

import "errors"

var (
	// ErrNotFound is returned when the wallet does not exist.
	ErrNotFound = errors.New("wallet not found")

	// ErrInvalidAmount rejects non-positive credit or debit amounts.
	ErrInvalidAmount = errors.New("amount must be a positive number of minor units")

	// ErrMissingVisitReference rejects debits that do not name the visit the
	// money pays for.
	ErrMissingVisitReference = errors.New("wallet debit requires a visit reference")

	// ErrInsufficientBalance rejects debits that would take the balance
	// below zero.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

// errDuplicatePatient signals the unique index on patient_id fired: another
// request created the wallet first. EnsureWallet refetches on it.
var errDuplicatePatient = errors.New("patient already has a wallet")
