package payment

import (
	"time"

	"github.com/google/uuid"
)

// Method is how the money arrived. Gateway payments are never recorded
// directly; they are created by verifying a PaymentIntent, so every gateway
// payment traces back to exactly one provider reference.
type Method string

const (
	MethodCash    Method = "cash"
	MethodCard    Method = "card"
	MethodGateway Method = "gateway"
)

// Payment maps to the payments table. A row here is settled money; there is
// no pending state on this table.
type Payment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	VisitID    uuid.UUID `db:"visit_id" json:"visit_id"`
	Amount     int64     `db:"amount" json:"amount"`
	Method     Method    `db:"method" json:"method"`
	Reference  *string   `db:"reference" json:"reference,omitempty"`
	ReceivedBy string    `db:"received_by" json:"received_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type IntentStatus string

const (
	IntentInitialized IntentStatus = "initialized"
	IntentVerified    IntentStatus = "verified"
	IntentFailed      IntentStatus = "failed"
)

// PaymentIntent maps to the payment_intents table. GatewayReference is
// unique; verification is idempotent, so replayed provider webhooks for the
// same reference converge on one terminal state and at most one Payment.
type PaymentIntent struct {
	ID               uuid.UUID    `db:"id" json:"id"`
	VisitID          uuid.UUID    `db:"visit_id" json:"visit_id"`
	GatewayReference string       `db:"gateway_reference" json:"gateway_reference"`
	Amount           int64        `db:"amount" json:"amount"`
	Status           IntentStatus `db:"status" json:"status"`
	PaymentID        *uuid.UUID   `db:"payment_id" json:"payment_id,omitempty"`
	FailureReason    *string      `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}
