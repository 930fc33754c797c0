package gateway_test

import (
	"testing"

	"github.com/inkpress/go-print-payments/internal/gateway"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paymentUpdatedBody = `{
  "type": "payment.updated",
  "id": "evt_1",
  "created_at": "2026-03-01T10:00:00Z",
  "data": {
    "object": {
      "payment": {
        "id": "pay_1",
        "order_id": "ord_1",
        "status": "COMPLETED",
        "amount_money": {"amount": 4279, "currency": "USD"},
        "card_details": {"card": {"card_brand": "VISA", "last_4": "4242"}},
        "receipt_number": "rcpt-77"
      }
    }
  }
}`

func TestParsePaymentUpdated(t *testing.T) {
	ev, err := gateway.Parse([]byte(paymentUpdatedBody))
	require.NoError(t, err)
	require.NotNil(t, ev.Payment)
	assert.Nil(t, ev.Customer)

	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "ord_1", ev.Payment.OrderID)
	assert.Equal(t, "pay_1", ev.Payment.GatewayPaymentID)
	assert.Equal(t, "COMPLETED", ev.Payment.GatewayStatus)
	assert.True(t, ev.Payment.Snapshot.AmountCaptured.Equal(decimal.RequireFromString("42.79")),
		"amount = %s", ev.Payment.Snapshot.AmountCaptured)
	assert.Equal(t, "USD", ev.Payment.Snapshot.Currency)
	assert.Equal(t, "VISA", ev.Payment.Snapshot.CardBrand)
	assert.Equal(t, "4242", ev.Payment.Snapshot.CardLast4)
	assert.Equal(t, "rcpt-77", ev.Payment.Snapshot.ReceiptRef)
}

func TestParseCustomerCreated(t *testing.T) {
	body := `{
	  "type": "customer.created",
	  "id": "evt_2",
	  "data": {"object": {"customer": {"id": "gw-9", "email_address": "a@example.com", "given_name": "Ani", "family_name": "W"}}}
	}`
	ev, err := gateway.Parse([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, ev.Customer)
	assert.False(t, ev.Customer.Deleted)
	assert.Equal(t, "gw-9", ev.Customer.GatewayCustomerID)
	assert.Equal(t, "a@example.com", ev.Customer.Email)
	assert.Equal(t, "Ani W", ev.Customer.Name)
}

func TestParseCustomerDeleted(t *testing.T) {
	body := `{
	  "type": "customer.deleted",
	  "id": "evt_3",
	  "data": {"object": {"customer": {"id": "gw-9"}}}
	}`
	ev, err := gateway.Parse([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, ev.Customer)
	assert.True(t, ev.Customer.Deleted)
}

func TestParseUnknownType(t *testing.T) {
	body := `{"type": "refund.created", "id": "evt_4", "data": {"object": {}}}`
	_, err := gateway.Parse([]byte(body))
	assert.ErrorIs(t, err, gateway.ErrUnknownType)
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{{{`,
		"missing id":        `{"type": "payment.created"}`,
		"no payment object": `{"type": "payment.created", "id": "evt_5", "data": {"object": {}}}`,
		"payment no status": `{"type": "payment.updated", "id": "evt_6", "data": {"object": {"payment": {"id": "p", "order_id": "o"}}}}`,
		"customer no email": `{"type": "customer.created", "id": "evt_7", "data": {"object": {"customer": {"id": "gw-1"}}}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gateway.Parse([]byte(body))
			assert.ErrorIs(t, err, gateway.ErrMalformed)
		})
	}
}
