package payment

import "errors"

var (
	// ErrInvalidAmount rejects non-positive payment amounts.
	ErrInvalidAmount = errors.New("amount must be a positive number of minor units")

	// ErrNotFound is returned when the referenced payment does not exist.
	ErrNotFound = errors.New("payment not found")

	// ErrIntentNotFound is returned when no intent carries the reference.
	ErrIntentNotFound = errors.New("payment intent not found")

	// ErrDuplicateGatewayReference is returned when a gateway reference is
	// reused, or when a verification replay conflicts with the terminal
	// state already recorded for it.
	ErrDuplicateGatewayReference = errors.New("gateway reference already used")

	// ErrIntentNotVerified is returned when the payment for an intent is
	// requested before a successful verification.
	ErrIntentNotVerified = errors.New("payment intent is not verified")
)
