package billing

import (
	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/visit"
)

// Summary is the derived financial picture of a visit. It is computed from
// the ledgers on every request, never stored, so two calls with the same
// ledger state always agree.
type Summary struct {
	VisitID            uuid.UUID           `json:"visit_id"`
	TotalCharges       int64               `json:"total_charges"`
	InsuranceAmount    int64               `json:"insurance_amount"`
	PatientPayable     int64               `json:"patient_payable"`
	TotalPayments      int64               `json:"total_payments"`
	TotalWalletDebits  int64               `json:"total_wallet_debits"`
	TotalFunded        int64               `json:"total_funded"`
	OutstandingBalance int64               `json:"outstanding_balance"`
	PaymentStatus      visit.PaymentStatus `json:"payment_status"`
	CanBeCleared       bool                `json:"can_be_cleared"`
	FullyInsured       bool                `json:"fully_insured"`
}

// computeSummary folds the ledger aggregates into a Summary. Outstanding is
// patient payable minus everything collected and is deliberately not clamped:
// a negative value is an overpayment the clinic owes back.
func computeSummary(visitID uuid.UUID, totalCharges, insurance, payments, walletDebits int64) *Summary {
	payable := totalCharges - insurance
	collected := payments + walletDebits
	outstanding := payable - collected

	s := &Summary{
		VisitID:            visitID,
		TotalCharges:       totalCharges,
		InsuranceAmount:    insurance,
		PatientPayable:     payable,
		TotalPayments:      payments,
		TotalWalletDebits:  walletDebits,
		TotalFunded:        collected,
		OutstandingBalance: outstanding,
		CanBeCleared:       outstanding <= 0,
		FullyInsured:       totalCharges > 0 && insurance >= totalCharges,
	}

	// Insurance counts toward partial settlement even before the patient
	// pays anything: a bill 80% covered by the insurer is not pending.
	switch {
	case outstanding <= 0:
		s.PaymentStatus = visit.PaymentCleared
	case collected > 0 || insurance > 0:
		s.PaymentStatus = visit.PaymentPartial
	default:
		s.PaymentStatus = visit.PaymentPending
	}
	return s
}
