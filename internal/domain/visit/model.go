package visit

import (
	"time"

	"github.com/google/uuid"
)

// Status is the visit lifecycle state. The only transition is OPEN -> CLOSED;
// there is no reopen.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// PaymentStatus is derived from the billing summary and persisted for quick
// listing. It is written only by summary read-repair and the closure gate.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentCleared PaymentStatus = "cleared"
)

// Visit maps to the visits table.
type Visit struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	Reason        *string       `db:"reason" json:"reason,omitempty"`
	Status        Status        `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	StartedAt     time.Time     `db:"started_at" json:"started_at"`
	ClosedAt      *time.Time    `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy      *string       `db:"closed_by" json:"closed_by,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Open reports whether the visit still accepts billing activity.
func (v *Visit) Open() bool { return v.Status == StatusOpen }

// ClosureCheck is the result of a dry-run closure evaluation.
type ClosureCheck struct {
	CanClose    bool   `json:"can_close"`
	Reason      string `json:"reason,omitempty"`
	Outstanding int64  `json:"outstanding_balance"`
}
