package billing

import (
	"testing"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/visit"
)

func TestComputeSummary_InsuranceOnly(t *testing.T) {
	// 10000 charged, partial policy pays 8000, nothing collected yet.
	s := computeSummary(uuid.New(), 10000, 8000, 0, 0)
	if s.PatientPayable != 2000 {
		t.Errorf("expected payable 2000, got %d", s.PatientPayable)
	}
	if s.OutstandingBalance != 2000 {
		t.Errorf("expected outstanding 2000, got %d", s.OutstandingBalance)
	}
	if s.PaymentStatus != visit.PaymentPartial {
		t.Errorf("expected partial, got %s", s.PaymentStatus)
	}
	if s.CanBeCleared {
		t.Error("expected not clearable")
	}
}

func TestComputeSummary_InsurancePlusPaymentClears(t *testing.T) {
	s := computeSummary(uuid.New(), 10000, 8000, 2000, 0)
	if s.OutstandingBalance != 0 {
		t.Errorf("expected outstanding 0, got %d", s.OutstandingBalance)
	}
	if s.PaymentStatus != visit.PaymentCleared {
		t.Errorf("expected cleared, got %s", s.PaymentStatus)
	}
	if !s.CanBeCleared {
		t.Error("expected clearable")
	}
}

func TestComputeSummary_OverpaymentStaysNegative(t *testing.T) {
	s := computeSummary(uuid.New(), 10000, 0, 12000, 0)
	if s.OutstandingBalance != -2000 {
		t.Errorf("overpayment must not be clamped, got %d", s.OutstandingBalance)
	}
	if s.PaymentStatus != visit.PaymentCleared {
		t.Errorf("expected cleared, got %s", s.PaymentStatus)
	}
}

func TestComputeSummary_NothingCollected(t *testing.T) {
	s := computeSummary(uuid.New(), 10000, 0, 0, 0)
	if s.PaymentStatus != visit.PaymentPending {
		t.Errorf("expected pending, got %s", s.PaymentStatus)
	}
	if s.OutstandingBalance != 10000 {
		t.Errorf("expected outstanding 10000, got %d", s.OutstandingBalance)
	}
}

func TestComputeSummary_WalletCountsTowardFunding(t *testing.T) {
	s := computeSummary(uuid.New(), 10000, 0, 4000, 6000)
	if s.OutstandingBalance != 0 {
		t.Errorf("expected outstanding 0, got %d", s.OutstandingBalance)
	}
	if s.PaymentStatus != visit.PaymentCleared {
		t.Errorf("expected cleared, got %s", s.PaymentStatus)
	}
}

func TestComputeSummary_FullyInsured(t *testing.T) {
	s := computeSummary(uuid.New(), 10000, 10000, 0, 0)
	if !s.FullyInsured {
		t.Error("expected fully insured")
	}
	if s.PatientPayable != 0 {
		t.Errorf("expected payable 0, got %d", s.PatientPayable)
	}
	if s.PaymentStatus != visit.PaymentCleared {
		t.Errorf("expected cleared, got %s", s.PaymentStatus)
	}
	if !s.CanBeCleared {
		t.Error("fully insured visit with no payments must be clearable")
	}
}

func TestComputeSummary_Deterministic(t *testing.T) {
	id := uuid.New()
	a := computeSummary(id, 10000, 8000, 1000, 500)
	b := computeSummary(id, 10000, 8000, 1000, 500)
	if *a != *b {
		t.Errorf("identical inputs must yield identical summaries: %+v vs %+v", a, b)
	}
}
