package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPaid = "OrderPaid"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "payment-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----

type OrderPaidPayload struct {
	OrderID          string          `json:"order_id"`
	CustomerID       *string         `json:"customer_id,omitempty"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	ReceiptRef       string          `json:"receipt_ref,omitempty"`
	CreditAwarded    decimal.Decimal `json:"credit_awarded"`
}
