package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// uniqueViolation: SQLSTATE 23505.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, status, total, subtotal, tax, shipping, discount, customer_id, payment_snapshot, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var s string
	var snap []byte
	err := row.Scan(&o.ID, &s, &o.Total, &o.Subtotal, &o.Tax, &o.Shipping, &o.Discount,
		&o.CustomerID, &snap, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Status = Status(s)
	if len(snap) > 0 {
		var ps PaymentSnapshot
		if err := json.Unmarshal(snap, &ps); err != nil {
			return nil, fmt.Errorf("decode payment_snapshot: %w", err)
		}
		o.Snapshot = &ps
	}
	return &o, nil
}

func (r *Repo) Get(ctx context.Context, orderID string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, orderID)
	return scanOrder(row)
}

// CreatePending: idempotent via client_ref.
// - jika client_ref sudah ada -> return existing id (existed=true), tanpa insert baru.
func (r *Repo) CreatePending(ctx context.Context, clientRef string, customerID *string, total, subtotal, tax, shipping, discount decimal.Decimal) (orderID string, existed bool, err error) {
	row := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE client_ref=$1`, clientRef)
	if err = row.Scan(&orderID); err == nil {
		return orderID, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	orderID = uuid.NewString()
	_, err = r.DB.Exec(ctx, `
		INSERT INTO orders(id, client_ref, status, total, subtotal, tax, shipping, discount, customer_id)
		VALUES ($1, $2, 'pending_payment', $3, $4, $5, $6, $7, $8)
	`, orderID, clientRef, total, subtotal, tax, shipping, discount, customerID)
	if err != nil {
		if uniqueViolation(err) {
			// race dgn proses lain: ambil row yg menang
			row := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE client_ref=$1`, clientRef)
			if err2 := row.Scan(&orderID); err2 == nil {
				return orderID, true, nil
			}
		}
		return "", false, err
	}
	return orderID, false, nil
}

// MarkPaid: satu conditional write. Status pindah ke 'paid' HANYA jika masih
// 'pending_payment'; kalau tidak, tidak ada row yg berubah dan caller yg
// memutuskan artinya (sudah paid, atau terminal). Tidak boleh read-then-write
// terpisah: dua reconcile bisa jalan paralel dari proses berbeda.
// snap boleh nil (ConfirmSignal tidak bawa fakta payment); snapshot lama dibiarkan.
func (r *Repo) MarkPaid(ctx context.Context, orderID string, snap *PaymentSnapshot) (bool, error) {
	var b []byte
	if snap != nil {
		var err error
		if b, err = json.Marshal(snap); err != nil {
			return false, err
		}
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status='paid', payment_snapshot=COALESCE($2, payment_snapshot), updated_at=now()
		WHERE id=$1 AND status='pending_payment'
	`, orderID, b)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// MergeSnapshot: refresh metadata snapshot tanpa menyentuh status dan tanpa
// side effect. Hanya field non-kosong yg ditulis, dan hanya jika snapshot
// lama kosong atau payment id-nya sama (payment id tidak pernah ditimpa
// payment id lain).
func (r *Repo) MergeSnapshot(ctx context.Context, orderID string, snap PaymentSnapshot) (bool, error) {
	meta := map[string]any{}
	if snap.GatewayPaymentID != "" {
		meta["gateway_payment_id"] = snap.GatewayPaymentID
	}
	if snap.GatewayStatus != "" {
		meta["gateway_status"] = snap.GatewayStatus
	}
	if !snap.AmountCaptured.IsZero() {
		meta["amount_captured"] = snap.AmountCaptured
	}
	if snap.Currency != "" {
		meta["currency"] = snap.Currency
	}
	if snap.CardBrand != "" {
		meta["card_brand"] = snap.CardBrand
	}
	if snap.CardLast4 != "" {
		meta["card_last4"] = snap.CardLast4
	}
	if snap.CapturedAt != nil {
		meta["captured_at"] = snap.CapturedAt
	}
	if snap.ReceiptRef != "" {
		meta["receipt_ref"] = snap.ReceiptRef
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return false, err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET payment_snapshot = COALESCE(payment_snapshot, '{}'::jsonb) || $2,
		    updated_at = now()
		WHERE id=$1
		  AND (payment_snapshot IS NULL
		       OR payment_snapshot->>'gateway_payment_id' IS NULL
		       OR payment_snapshot->>'gateway_payment_id' = $3)
	`, orderID, b, snap.GatewayPaymentID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
