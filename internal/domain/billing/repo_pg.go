package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// -- Charges --

type chargeRepoPG struct{ pool *pgxpool.Pool }

func NewChargeRepoPG(pool *pgxpool.Pool) ChargeRepository { return &chargeRepoPG{pool: pool} }

func (r *chargeRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const chargeCols = `id, visit_id, category, amount, description, reversal_of, created_by, created_at`

func (r *chargeRepoPG) scanCharge(row pgx.Row) (*Charge, error) {
	var c Charge
	err := row.Scan(&c.ID, &c.VisitID, &c.Category, &c.Amount, &c.Description,
		&c.ReversalOf, &c.CreatedBy, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChargeNotFound
	}
	return &c, err
}

func (r *chargeRepoPG) Append(ctx context.Context, c *Charge) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO charges (id, visit_id, category, amount, description, reversal_of, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		c.ID, c.VisitID, c.Category, c.Amount, c.Description, c.ReversalOf, c.CreatedBy).
		Scan(&c.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// The partial unique index on reversal_of fired: a concurrent
		// writer reversed the same charge first.
		return ErrAlreadyReversed
	}
	return err
}

func (r *chargeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Charge, error) {
	return r.scanCharge(r.conn(ctx).QueryRow(ctx, `SELECT `+chargeCols+` FROM charges WHERE id = $1`, id))
}

func (r *chargeRepoPG) ListByVisit(ctx context.Context, visitID uuid.UUID, limit, offset int) ([]*Charge, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM charges WHERE visit_id = $1`, visitID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+chargeCols+` FROM charges WHERE visit_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`, visitID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Charge
	for rows.Next() {
		c, err := r.scanCharge(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

func (r *chargeRepoPG) SumByVisit(ctx context.Context, visitID uuid.UUID) (int64, error) {
	var sum int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM charges WHERE visit_id = $1`, visitID).Scan(&sum)
	return sum, err
}

func (r *chargeRepoPG) HasReversal(ctx context.Context, chargeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM charges WHERE reversal_of = $1)`, chargeID).Scan(&exists)
	return exists, err
}

// -- Insurance policies --

type policyRepoPG struct{ pool *pgxpool.Pool }

func NewPolicyRepoPG(pool *pgxpool.Pool) PolicyRepository { return &policyRepoPG{pool: pool} }

func (r *policyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const policyCols = `id, visit_id, provider_name, policy_number, coverage_type,
	coverage_percentage, approved_amount, approval_status, created_at, updated_at`

func (r *policyRepoPG) scanPolicy(row pgx.Row) (*InsurancePolicy, error) {
	var p InsurancePolicy
	err := row.Scan(&p.ID, &p.VisitID, &p.ProviderName, &p.PolicyNumber, &p.CoverageType,
		&p.CoveragePercentage, &p.ApprovedAmount, &p.ApprovalStatus, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPolicyNotFound
	}
	return &p, err
}

func (r *policyRepoPG) Create(ctx context.Context, p *InsurancePolicy) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO insurance_policies (id, visit_id, provider_name, policy_number, coverage_type,
			coverage_percentage, approved_amount, approval_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.VisitID, p.ProviderName, p.PolicyNumber, p.CoverageType,
		p.CoveragePercentage, p.ApprovedAmount, p.ApprovalStatus).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *policyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*InsurancePolicy, error) {
	return r.scanPolicy(r.conn(ctx).QueryRow(ctx, `SELECT `+policyCols+` FROM insurance_policies WHERE id = $1`, id))
}

func (r *policyRepoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*InsurancePolicy, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+policyCols+` FROM insurance_policies WHERE visit_id = $1 ORDER BY created_at ASC`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*InsurancePolicy
	for rows.Next() {
		p, err := r.scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}

func (r *policyRepoPG) UpdateApproval(ctx context.Context, id uuid.UUID, status ApprovalStatus, approvedAmount *int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance_policies SET approval_status = $2, approved_amount = $3, updated_at = NOW()
		WHERE id = $1`, id, status, approvedAmount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPolicyNotFound
	}
	return nil
}
