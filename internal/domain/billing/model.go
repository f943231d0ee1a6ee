package billing

import (
	"time"

	"github.com/google/uuid"
)

// ChargeCategory classifies a billable line item.
type ChargeCategory string

const (
	CategoryService   ChargeCategory = "service"
	CategoryProcedure ChargeCategory = "procedure"
	CategoryDrug      ChargeCategory = "drug"
	CategoryLab       ChargeCategory = "lab"
	CategoryRadiology ChargeCategory = "radiology"
	CategoryMisc      ChargeCategory = "misc"
)

var validCategories = map[ChargeCategory]bool{
	CategoryService:   true,
	CategoryProcedure: true,
	CategoryDrug:      true,
	CategoryLab:       true,
	CategoryRadiology: true,
	CategoryMisc:      true,
}

// Charge maps to the charges table. The ledger is append-only: there is no
// update or delete anywhere; corrections are negative offsetting rows with
// ReversalOf pointing at the original.
type Charge struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	VisitID     uuid.UUID      `db:"visit_id" json:"visit_id"`
	Category    ChargeCategory `db:"category" json:"category"`
	Amount      int64          `db:"amount" json:"amount"`
	Description *string        `db:"description" json:"description,omitempty"`
	ReversalOf  *uuid.UUID     `db:"reversal_of" json:"reversal_of,omitempty"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// CoverageType is how an insurance policy covers visit charges.
type CoverageType string

const (
	CoverageFull    CoverageType = "full"
	CoveragePartial CoverageType = "partial"
)

// ApprovalStatus is the insurer's decision on a policy claim for this visit.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// InsurancePolicy maps to the insurance_policies table. One visit may carry
// several policies; only approved ones fund the bill.
type InsurancePolicy struct {
	ID                 uuid.UUID      `db:"id" json:"id"`
	VisitID            uuid.UUID      `db:"visit_id" json:"visit_id"`
	ProviderName       string         `db:"provider_name" json:"provider_name"`
	PolicyNumber       string         `db:"policy_number" json:"policy_number"`
	CoverageType       CoverageType   `db:"coverage_type" json:"coverage_type"`
	CoveragePercentage *int           `db:"coverage_percentage" json:"coverage_percentage,omitempty"`
	ApprovedAmount     *int64         `db:"approved_amount" json:"approved_amount,omitempty"`
	ApprovalStatus     ApprovalStatus `db:"approval_status" json:"approval_status"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}
