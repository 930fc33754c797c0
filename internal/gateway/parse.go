// Package gateway mem-parsing payload webhook mentah dari payment gateway
// menjadi varian event tertutup yg sudah tervalidasi. Probing field opsional
// berhenti di sini; downstream hanya melihat tipe yg jelas.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inkpress/go-print-payments/internal/orders"
	"github.com/shopspring/decimal"
)

const (
	TypePaymentCreated  = "payment.created"
	TypePaymentUpdated  = "payment.updated"
	TypeCustomerCreated = "customer.created"
	TypeCustomerDeleted = "customer.deleted"
)

var (
	ErrMalformed   = errors.New("malformed webhook payload")
	ErrUnknownType = errors.New("unknown webhook event type")
)

// Event: hasil parse, tepat satu dari Payment/Customer yg terisi.
type Event struct {
	ID        string
	Type      string
	CreatedAt time.Time
	Payment   *PaymentEvent
	Customer  *CustomerEvent
}

type PaymentEvent struct {
	OrderID          string
	GatewayPaymentID string
	GatewayStatus    string
	Snapshot         orders.PaymentSnapshot
}

type CustomerEvent struct {
	Deleted           bool
	GatewayCustomerID string
	Email             string
	Name              string
}

// Bentuk kawat dari provider.
type wireEvent struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Data      struct {
		Object struct {
			Payment  *wirePayment  `json:"payment"`
			Customer *wireCustomer `json:"customer"`
		} `json:"object"`
	} `json:"data"`
}

type wirePayment struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	AmountMoney *struct {
		Amount   int64  `json:"amount"` // minor units
		Currency string `json:"currency"`
	} `json:"amount_money"`
	CardDetails *struct {
		Card struct {
			CardBrand string `json:"card_brand"`
			Last4     string `json:"last_4"`
		} `json:"card"`
	} `json:"card_details"`
	ReceiptNumber string     `json:"receipt_number"`
	CreatedAt     *time.Time `json:"created_at"`
}

type wireCustomer struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	GivenName    string `json:"given_name"`
	FamilyName   string `json:"family_name"`
}

func Parse(raw []byte) (*Event, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.ID == "" || w.Type == "" {
		return nil, fmt.Errorf("%w: missing id/type", ErrMalformed)
	}

	ev := &Event{ID: w.ID, Type: w.Type, CreatedAt: w.CreatedAt}
	switch w.Type {
	case TypePaymentCreated, TypePaymentUpdated:
		p := w.Data.Object.Payment
		if p == nil || p.ID == "" || p.OrderID == "" || p.Status == "" {
			return nil, fmt.Errorf("%w: payment event missing payment object fields", ErrMalformed)
		}
		pe := &PaymentEvent{
			OrderID:          p.OrderID,
			GatewayPaymentID: p.ID,
			GatewayStatus:    p.Status,
			Snapshot: orders.PaymentSnapshot{
				GatewayPaymentID: p.ID,
				GatewayStatus:    p.Status,
				ReceiptRef:       p.ReceiptNumber,
				CapturedAt:       p.CreatedAt,
			},
		}
		if p.AmountMoney != nil {
			pe.Snapshot.AmountCaptured = decimal.New(p.AmountMoney.Amount, -2)
			pe.Snapshot.Currency = p.AmountMoney.Currency
		}
		if p.CardDetails != nil {
			pe.Snapshot.CardBrand = p.CardDetails.Card.CardBrand
			pe.Snapshot.CardLast4 = p.CardDetails.Card.Last4
		}
		ev.Payment = pe
	case TypeCustomerCreated, TypeCustomerDeleted:
		c := w.Data.Object.Customer
		if c == nil || c.ID == "" {
			return nil, fmt.Errorf("%w: customer event missing customer object", ErrMalformed)
		}
		name := c.GivenName
		if c.FamilyName != "" {
			if name != "" {
				name += " "
			}
			name += c.FamilyName
		}
		ev.Customer = &CustomerEvent{
			Deleted:           w.Type == TypeCustomerDeleted,
			GatewayCustomerID: c.ID,
			Email:             c.EmailAddress,
			Name:              name,
		}
		if !ev.Customer.Deleted && ev.Customer.Email == "" {
			return nil, fmt.Errorf("%w: customer.created missing email", ErrMalformed)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, w.Type)
	}
	return ev, nil
}
