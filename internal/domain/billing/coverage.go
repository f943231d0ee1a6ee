package billing

// Contribution is the amount this policy puts toward a visit's net charges.
// Only approved policies contribute; asking an unapproved one is an error so
// callers cannot silently bill against a pending or rejected claim.
//
// Full coverage pays the whole net total; partial coverage pays the stated
// percentage, floored to whole minor units. Either way the insurer's approved
// amount, when present, caps the payout, and no policy ever pays more than the
// net total itself.
func (p *InsurancePolicy) Contribution(totalCharges int64) (int64, error) {
	if p.ApprovalStatus != ApprovalApproved {
		return 0, ErrUnapprovedInsurance
	}
	if totalCharges <= 0 {
		return 0, nil
	}

	var amt int64
	switch p.CoverageType {
	case CoverageFull:
		amt = totalCharges
	case CoveragePartial:
		if p.CoveragePercentage == nil {
			return 0, nil
		}
		amt = totalCharges * int64(*p.CoveragePercentage) / 100
	}
	if p.ApprovedAmount != nil && amt > *p.ApprovedAmount {
		amt = *p.ApprovedAmount
	}
	if amt > totalCharges {
		amt = totalCharges
	}
	return amt, nil
}

// ResolveCoverage sums the contributions of every approved policy attached to
// the visit. Pending and rejected policies are skipped. The combined amount is
// capped at the net charge total: stacked policies never produce a negative
// patient share.
func ResolveCoverage(totalCharges int64, policies []*InsurancePolicy) int64 {
	if totalCharges <= 0 {
		return 0
	}
	var covered int64
	for _, p := range policies {
		c, err := p.Contribution(totalCharges)
		if err != nil {
			continue
		}
		covered += c
	}
	if covered > totalCharges {
		covered = totalCharges
	}
	return covered
}
