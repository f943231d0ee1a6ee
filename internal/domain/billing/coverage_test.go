package billing

import (
	"errors"
	"testing"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func approvedPartial(pct int, approved *int64) *InsurancePolicy {
	return &InsurancePolicy{
		CoverageType:       CoveragePartial,
		CoveragePercentage: intPtr(pct),
		ApprovedAmount:     approved,
		ApprovalStatus:     ApprovalApproved,
	}
}

func TestContribution_Unapproved(t *testing.T) {
	p := &InsurancePolicy{CoverageType: CoverageFull, ApprovalStatus: ApprovalPending}
	if _, err := p.Contribution(10000); !errors.Is(err, ErrUnapprovedInsurance) {
		t.Errorf("expected ErrUnapprovedInsurance, got %v", err)
	}
	p.ApprovalStatus = ApprovalRejected
	if _, err := p.Contribution(10000); !errors.Is(err, ErrUnapprovedInsurance) {
		t.Errorf("expected ErrUnapprovedInsurance, got %v", err)
	}
}

func TestContribution_PartialFloorsToMinorUnits(t *testing.T) {
	p := approvedPartial(33, nil)
	got, err := p.Contribution(3333)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1099 { // 3333 * 33 / 100 floored
		t.Errorf("expected 1099, got %d", got)
	}
}

func TestContribution_ApprovedAmountCaps(t *testing.T) {
	p := approvedPartial(80, int64Ptr(5000))
	got, err := p.Contribution(10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5000 {
		t.Errorf("expected cap at 5000, got %d", got)
	}
}

func TestContribution_FullNeverExceedsTotal(t *testing.T) {
	p := &InsurancePolicy{
		CoverageType:   CoverageFull,
		ApprovedAmount: int64Ptr(50000),
		ApprovalStatus: ApprovalApproved,
	}
	got, err := p.Contribution(10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10000 {
		t.Errorf("expected 10000, got %d", got)
	}
}

func TestResolveCoverage_SkipsUnapproved(t *testing.T) {
	policies := []*InsurancePolicy{
		{CoverageType: CoverageFull, ApprovalStatus: ApprovalPending},
		approvedPartial(40, nil),
	}
	if got := ResolveCoverage(10000, policies); got != 4000 {
		t.Errorf("expected 4000, got %d", got)
	}
}

func TestResolveCoverage_StackedPoliciesCappedAtTotal(t *testing.T) {
	policies := []*InsurancePolicy{
		approvedPartial(80, nil),
		approvedPartial(80, nil),
	}
	if got := ResolveCoverage(10000, policies); got != 10000 {
		t.Errorf("expected cap at 10000, got %d", got)
	}
}

func TestResolveCoverage_NonPositiveTotal(t *testing.T) {
	policies := []*InsurancePolicy{approvedPartial(80, nil)}
	if got := ResolveCoverage(0, policies); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := ResolveCoverage(-500, policies); got != 0 {
		t.Errorf("expected 0 for negative net charges, got %d", got)
	}
}
