package wallet

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const walletCols = `id, patient_id, balance, currency, created_at, updated_at`

func (r *repoPG) scanWallet(row pgx.Row) (*Wallet, error) {
	var w Wallet
	err := row.Scan(&w.ID, &w.PatientID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &w, err
}

func (r *repoPG) Create(ctx context.Context, w *Wallet) error {
	w.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO wallets (id, patient_id, balance, currency)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		w.ID, w.PatientID, w.Balance, w.Currency).
		Scan(&w.CreatedAt, &w.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errDuplicatePatient
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	return r.scanWallet(r.conn(ctx).QueryRow(ctx, `SELECT `+walletCols+` FROM wallets WHERE id = $1`, id))
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Wallet, error) {
	return r.scanWallet(r.conn(ctx).QueryRow(ctx, `SELECT `+walletCols+` FROM wallets WHERE patient_id = $1`, patientID))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	return r.scanWallet(r.conn(ctx).QueryRow(ctx, `SELECT `+walletCols+` FROM wallets WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) UpdateBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE wallets SET balance = $2, updated_at = NOW() WHERE id = $1`, id, balance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const txnCols = `id, wallet_id, type, amount, balance_after, visit_id, note, created_by, created_at`

func (r *repoPG) scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.BalanceAfter,
		&t.VisitID, &t.Note, &t.CreatedBy, &t.CreatedAt)
	return &t, err
}

func (r *repoPG) AppendTransaction(ctx context.Context, t *Transaction) error {
	t.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, type, amount, balance_after, visit_id, note, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		t.ID, t.WalletID, t.Type, t.Amount, t.BalanceAfter, t.VisitID, t.Note, t.CreatedBy).
		Scan(&t.CreatedAt)
}

func (r *repoPG) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`, walletID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+txnCols+` FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, walletID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, nil
}

func (r *repoPG) SumDebitsByVisit(ctx context.Context, visitID uuid.UUID) (int64, error) {
	var sum int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions
		WHERE visit_id = $1 AND type = $2`, visitID, TypeDebit).Scan(&sum)
	return sum, err
}
