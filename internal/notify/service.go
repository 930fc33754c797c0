package notify

import (
	"context"
	"fmt"
	"log/slog"

	kafkax "github.com/inkpress/go-print-payments/internal/kafka"
	"github.com/inkpress/go-print-payments/internal/orders"
	"github.com/inkpress/go-print-payments/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service: sisi consumer. Ambil event order.paid, dedup per event_id, kirim
// konfirmasi ke provider. Return nil hanya kalau boleh commit offset;
// pengiriman best-effort (non-goal exactly-once lintas crash), redelivery
// aman karena dedup.
type Service struct {
	Redis  *redis.Client
	Sender *Sender
	Log    *slog.Logger
}

func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPaid {
		return nil
	} // ignore

	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Sender.Send(ctx, p); err != nil {
		s.Log.Error("confirmation send failed", "order_id", p.OrderID, "err", err)
		return err
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	s.Log.Info("confirmation sent", "order_id", p.OrderID, "event_id", env.EventID)
	return nil
}
