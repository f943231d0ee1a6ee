package payment

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

// -- Payments --

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository { return &paymentRepoPG{pool: pool} }

func (r *paymentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const paymentCols = `id, visit_id, amount, method, reference, received_by, created_at`

func (r *paymentRepoPG) scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.VisitID, &p.Amount, &p.Method, &p.Reference, &p.ReceivedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payments (id, visit_id, amount, method, reference, received_by)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		p.ID, p.VisitID, p.Amount, p.Method, p.Reference, p.ReceivedBy).
		Scan(&p.CreatedAt)
}

func (r *paymentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return r.scanPayment(r.conn(ctx).QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE id = $1`, id))
}

func (r *paymentRepoPG) ListByVisit(ctx context.Context, visitID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE visit_id = $1`, visitID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+paymentCols+` FROM payments WHERE visit_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, visitID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *paymentRepoPG) SumByVisit(ctx context.Context, visitID uuid.UUID) (int64, error) {
	var sum int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments WHERE visit_id = $1`, visitID).Scan(&sum)
	return sum, err
}

// -- Payment intents --

type intentRepoPG struct{ pool *pgxpool.Pool }

func NewIntentRepoPG(pool *pgxpool.Pool) IntentRepository { return &intentRepoPG{pool: pool} }

func (r *intentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const intentCols = `id, visit_id, gateway_reference, amount, status, payment_id, failure_reason, created_at, updated_at`

func (r *intentRepoPG) scanIntent(row pgx.Row) (*PaymentIntent, error) {
	var i PaymentIntent
	err := row.Scan(&i.ID, &i.VisitID, &i.GatewayReference, &i.Amount, &i.Status,
		&i.PaymentID, &i.FailureReason, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIntentNotFound
	}
	return &i, err
}

func (r *intentRepoPG) Create(ctx context.Context, i *PaymentIntent) error {
	i.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payment_intents (id, visit_id, gateway_reference, amount, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		i.ID, i.VisitID, i.GatewayReference, i.Amount, i.Status).
		Scan(&i.CreatedAt, &i.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateGatewayReference
	}
	return err
}

func (r *intentRepoPG) GetByReference(ctx context.Context, ref string) (*PaymentIntent, error) {
	return r.scanIntent(r.conn(ctx).QueryRow(ctx, `SELECT `+intentCols+` FROM payment_intents WHERE gateway_reference = $1`, ref))
}

func (r *intentRepoPG) GetByReferenceForUpdate(ctx context.Context, ref string) (*PaymentIntent, error) {
	return r.scanIntent(r.conn(ctx).QueryRow(ctx, `SELECT `+intentCols+` FROM payment_intents WHERE gateway_reference = $1 FOR UPDATE`, ref))
}

func (r *intentRepoPG) MarkVerified(ctx context.Context, id, paymentID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE payment_intents SET status = $2, payment_id = $3, updated_at = NOW()
		WHERE id = $1`, id, IntentVerified, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIntentNotFound
	}
	return nil
}

func (r *intentRepoPG) MarkFailed(ctx context.Context, id uuid.UUID, reason *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE payment_intents SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1`, id, IntentFailed, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIntentNotFound
	}
	return nil
}
