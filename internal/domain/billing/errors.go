package billing

import "errors"

var (
	// ErrInvalidAmount rejects non-positive charge amounts.
	ErrInvalidAmount = errors.New("amount must be a positive number of minor units")

	// ErrChargeNotFound is returned when the referenced charge does not exist.
	ErrChargeNotFound = errors.New("charge not found")

	// ErrAlreadyReversed blocks reversing a charge twice, or reversing a
	// reversal row itself.
	ErrAlreadyReversed = errors.New("charge already reversed")

	// ErrPolicyNotFound is returned when the referenced policy does not exist.
	ErrPolicyNotFound = errors.New("insurance policy not found")

	// ErrPolicyFinalized blocks changing an approval decision once made.
	ErrPolicyFinalized = errors.New("insurance policy approval already finalized")

	// ErrUnapprovedInsurance is returned when a coverage contribution is
	// requested from a policy the insurer has not approved.
	ErrUnapprovedInsurance = errors.New("insurance policy is not approved")
)
