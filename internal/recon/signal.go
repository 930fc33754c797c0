package recon

import (
	"strings"

	"github.com/inkpress/go-print-payments/internal/orders"
)

// Signal: union tertutup. Payload webhook mentah di-map ke salah satu varian
// ini di boundary (internal/gateway) sebelum masuk engine; engine tidak
// pernah memeriksa field opsional JSON.
type Signal interface{ isSignal() }

// WebhookSignal: fakta dari gateway, bisa terkirim berkali-kali dan out of
// order (payment.created maupun payment.updated dua-duanya bisa klaim
// completion utk payment yg sama).
type WebhookSignal struct {
	EventID          string
	GatewayPaymentID string
	GatewayStatus    string
	Snapshot         orders.PaymentSnapshot
}

func (WebhookSignal) isSignal() {}

// ConfirmSignal: redirect browser balik ke site. TIDAK membawa fakta payment
// terverifikasi; ini promosi optimistik berdasar kepercayaan bahwa redirect
// hanya terjadi setelah bayar sukses. Webhook tetap otoritas sebenarnya.
type ConfirmSignal struct{}

func (ConfirmSignal) isSignal() {}

// Satu-satunya status gateway yg berarti payment benar-benar selesai.
// Status lain (PENDING, APPROVED, FAILED, ...) tidak memicu transisi apa pun.
func gatewayComplete(s string) bool {
	return strings.EqualFold(s, "COMPLETED")
}
