package visit

import "errors"

var (
	// ErrNotFound is returned when the referenced visit does not exist.
	ErrNotFound = errors.New("visit not found")

	// ErrClosed is returned by any operation that requires an open visit.
	ErrClosed = errors.New("visit is closed")

	// ErrOutstandingBalance blocks closure while the patient still owes money.
	ErrOutstandingBalance = errors.New("visit has outstanding balance")
)
