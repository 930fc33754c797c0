// Package notify: dispatch notifikasi konfirmasi "order paid". Engine cuma
// memutuskan KAPAN (tepat sekali); pengiriman sebenarnya jalan async lewat
// Kafka supaya path ack webhook tidak pernah nunggu provider notifikasi.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkax "github.com/inkpress/go-print-payments/internal/kafka"
	"github.com/inkpress/go-print-payments/internal/orders"
	"github.com/inkpress/go-print-payments/internal/recon"
	kafkago "github.com/segmentio/kafka-go"
)

type KafkaDispatcher struct {
	Producer *kafkax.Producer
	Service  string
	Log      *slog.Logger
}

func (d *KafkaDispatcher) DispatchPaid(ctx context.Context, n recon.PaidNotification) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPaid,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      d.Service,
		CorrelationID: n.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderPaidPayload{
			OrderID:          n.OrderID,
			CustomerID:       n.CustomerID,
			Total:            n.Total,
			Currency:         n.Currency,
			GatewayPaymentID: n.GatewayPaymentID,
			ReceiptRef:       n.ReceiptRef,
			CreditAwarded:    n.CreditAwarded,
		}),
	}
	d.Producer.Publish(orders.PartitionKey(n.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPaid)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if d.Log != nil {
		d.Log.Info("paid notification queued", "order_id", n.OrderID, "event_id", ev.EventID)
	}
}
