package recon_test

import (
	"context"
	"sync"
	"time"

	"github.com/inkpress/go-print-payments/internal/orders"
	"github.com/inkpress/go-print-payments/internal/recon"
	"github.com/shopspring/decimal"
)

// Fake store in-memory dgn semantik CAS yg sama dgn orders.Repo: MarkPaid
// atomic di bawah satu mutex, persis "update where status=... return rows".
type memStore struct {
	mu     sync.Mutex
	byID   map[string]*orders.Order
	failMP bool // simulasi store down di MarkPaid
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]*orders.Order)}
}

func (m *memStore) put(o orders.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := o
	m.byID[o.ID] = &cp
}

func (m *memStore) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[orderID]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *o
	if o.Snapshot != nil {
		s := *o.Snapshot
		cp.Snapshot = &s
	}
	return &cp, nil
}

func (m *memStore) MarkPaid(ctx context.Context, orderID string, snap *orders.PaymentSnapshot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMP {
		return false, context.DeadlineExceeded
	}
	o, ok := m.byID[orderID]
	if !ok || o.Status != orders.StatusPendingPayment {
		return false, nil
	}
	o.Status = orders.StatusPaid
	if snap != nil {
		s := *snap
		o.Snapshot = &s
	}
	o.UpdatedAt = time.Now()
	return true, nil
}

func (m *memStore) MergeSnapshot(ctx context.Context, orderID string, snap orders.PaymentSnapshot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[orderID]
	if !ok {
		return false, nil
	}
	if o.Snapshot != nil && o.Snapshot.GatewayPaymentID != "" &&
		snap.GatewayPaymentID != "" && o.Snapshot.GatewayPaymentID != snap.GatewayPaymentID {
		return false, nil
	}
	if o.Snapshot == nil {
		o.Snapshot = &orders.PaymentSnapshot{}
	}
	if snap.GatewayPaymentID != "" {
		o.Snapshot.GatewayPaymentID = snap.GatewayPaymentID
	}
	if snap.GatewayStatus != "" {
		o.Snapshot.GatewayStatus = snap.GatewayStatus
	}
	if !snap.AmountCaptured.IsZero() {
		o.Snapshot.AmountCaptured = snap.AmountCaptured
	}
	if snap.Currency != "" {
		o.Snapshot.Currency = snap.Currency
	}
	if snap.CardBrand != "" {
		o.Snapshot.CardBrand = snap.CardBrand
	}
	if snap.CardLast4 != "" {
		o.Snapshot.CardLast4 = snap.CardLast4
	}
	if snap.CapturedAt != nil {
		t := *snap.CapturedAt
		o.Snapshot.CapturedAt = &t
	}
	if snap.ReceiptRef != "" {
		o.Snapshot.ReceiptRef = snap.ReceiptRef
	}
	return true, nil
}

// Fake ledger dgn unique (customer_id, idempotency_key).
type memLedger struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	rows     map[string]orders.StoreCreditTransaction
}

func newMemLedger() *memLedger {
	return &memLedger{
		balances: make(map[string]decimal.Decimal),
		rows:     make(map[string]orders.StoreCreditTransaction),
	}
}

func (l *memLedger) Credit(ctx context.Context, customerID string, amount decimal.Decimal, key, reason string) (decimal.Decimal, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := customerID + "|" + key
	if row, ok := l.rows[k]; ok {
		return row.ResultingBalance, false, nil
	}
	bal := l.balances[customerID].Add(amount)
	l.balances[customerID] = bal
	l.rows[k] = orders.StoreCreditTransaction{
		CustomerID:       customerID,
		Amount:           amount,
		Reason:           reason,
		IdempotencyKey:   key,
		ResultingBalance: bal,
		CreatedAt:        time.Now(),
	}
	return bal, true, nil
}

func (l *memLedger) rowCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

func (l *memLedger) balance(customerID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[customerID]
}

type memDispatcher struct {
	mu    sync.Mutex
	calls []recon.PaidNotification
}

func (d *memDispatcher) DispatchPaid(ctx context.Context, n recon.PaidNotification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, n)
}

func (d *memDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}
