package orders

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusProcessing     Status = "processing"
	StatusPrinting       Status = "printing"
	StatusInTransit      Status = "in_transit"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusPaymentFailed  Status = "payment_failed"
	StatusCancelled      Status = "cancelled"
)

// Status hanya maju mengikuti graph ini, tidak pernah mundur.
var validNext = map[Status]map[Status]bool{
	StatusPendingPayment: {StatusPaid: true, StatusPaymentFailed: true, StatusCancelled: true},
	StatusPaid:           {StatusProcessing: true},
	StatusProcessing:     {StatusPrinting: true},
	StatusPrinting:       {StatusInTransit: true, StatusShipped: true},
	StatusInTransit:      {StatusDelivered: true},
	StatusShipped:        {StatusDelivered: true},
	StatusDelivered:      {},
	StatusPaymentFailed:  {},
	StatusCancelled:      {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// IsTerminal: tidak ada edge keluar.
func IsTerminal(s Status) bool {
	return len(validNext[s]) == 0
}

// PaidOrLater: order sudah pernah lewat edge pending_payment -> paid.
func PaidOrLater(s Status) bool {
	switch s {
	case StatusPaid, StatusProcessing, StatusPrinting, StatusInTransit, StatusShipped, StatusDelivered:
		return true
	}
	return false
}
