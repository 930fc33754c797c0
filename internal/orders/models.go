package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSnapshot: fakta terakhir dari gateway utk satu order.
// Disimpan sebagai JSONB; sekaligus audit trail dan idempotency marker.
type PaymentSnapshot struct {
	GatewayPaymentID string          `json:"gateway_payment_id"`
	GatewayStatus    string          `json:"gateway_status"`
	AmountCaptured   decimal.Decimal `json:"amount_captured"`
	Currency         string          `json:"currency"`
	CardBrand        string          `json:"card_brand,omitempty"`
	CardLast4        string          `json:"card_last4,omitempty"`
	CapturedAt       *time.Time      `json:"captured_at,omitempty"`
	ReceiptRef       string          `json:"receipt_ref,omitempty"`
}

type Order struct {
	ID         string
	Status     Status // lihat status.go
	Total      decimal.Decimal
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Discount   decimal.Decimal
	CustomerID *string // nullable: guest order
	Snapshot   *PaymentSnapshot
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CustomerAccount struct {
	ID                 string
	Email              string
	Name               string
	GatewayCustomerID  *string // nullable; di-clear saat unlink, row tidak pernah dihapus
	StoreCreditBalance decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StoreCreditTransaction: append-only, source of truth utk saldo.
type StoreCreditTransaction struct {
	ID               string
	CustomerID       string
	Amount           decimal.Decimal // signed
	Reason           string
	IdempotencyKey   string
	ResultingBalance decimal.Decimal
	CreatedAt        time.Time
}

// EarnKey: idempotency key utk credit "earn" satu order.
func EarnKey(orderID string) string { return orderID + ":earn" }
