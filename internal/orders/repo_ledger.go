package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LedgerRepo struct{ DB *pgxpool.Pool }

// Credit: tepat satu row ledger + satu mutasi saldo per idempotency key.
// Insert di bawah unique (customer_id, idempotency_key); kalau duplikat,
// rollback dan kembalikan resulting_balance row yg sudah ada (applied=false).
// Row ledger dan update saldo cache ada di SATU transaksi supaya invariant
// saldo == sum(transactions) tetap berlaku walau crash/retry.
func (r *LedgerRepo) Credit(ctx context.Context, customerID string, amount decimal.Decimal, key, reason string) (balance decimal.Decimal, applied bool, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		UPDATE customers SET store_credit_balance = store_credit_balance + $2, updated_at = now()
		WHERE id=$1
		RETURNING store_credit_balance
	`, customerID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, ErrNotFound
		}
		return decimal.Zero, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO store_credit_transactions(id, customer_id, amount, reason, idempotency_key, resulting_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), customerID, amount, reason, key, balance)
	if err != nil {
		if uniqueViolation(err) {
			_ = tx.Rollback(ctx)
			row := r.DB.QueryRow(ctx, `
				SELECT resulting_balance FROM store_credit_transactions
				WHERE customer_id=$1 AND idempotency_key=$2
			`, customerID, key)
			if err2 := row.Scan(&balance); err2 != nil {
				return decimal.Zero, false, err2
			}
			return balance, false, nil
		}
		return decimal.Zero, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, false, err
	}
	return balance, true, nil
}

// Transactions: riwayat ledger satu customer, terbaru dulu.
func (r *LedgerRepo) Transactions(ctx context.Context, customerID string) ([]StoreCreditTransaction, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, customer_id, amount, reason, idempotency_key, resulting_balance, created_at
		FROM store_credit_transactions
		WHERE customer_id=$1
		ORDER BY created_at DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoreCreditTransaction
	for rows.Next() {
		var t StoreCreditTransaction
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Amount, &t.Reason, &t.IdempotencyKey, &t.ResultingBalance, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
