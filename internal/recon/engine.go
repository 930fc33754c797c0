package recon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkpress/go-print-payments/internal/orders"
	"github.com/shopspring/decimal"
)

type Outcome string

const (
	// OutcomePromoted: call INI yg memindahkan order ke paid; side effects
	// sudah dijalankan (sekali saja).
	OutcomePromoted Outcome = "promoted"
	// OutcomeAlreadyHandled: fakta ini sudah pernah diserap. Sukses, bukan error.
	OutcomeAlreadyHandled Outcome = "already_handled"
	// OutcomeIncomplete: order belum/tidak bisa dipromosikan (cancelled,
	// payment_failed, atau confirm pada order yg bukan pending).
	OutcomeIncomplete Outcome = "incomplete"
	// OutcomePending: webhook dgn status gateway yg belum selesai; tidak ada
	// transisi, tidak ada side effect.
	OutcomePending Outcome = "pending"
)

type Result struct {
	Outcome Outcome
	Order   *orders.Order
}

// OrderStore: kebutuhan engine atas order store. Implementasi produksi
// orders.Repo; test pakai fake in-memory dgn semantik CAS yg sama.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	// MarkPaid: conditional write tunggal: status -> paid HANYA jika masih
	// pending_payment. Return true kalau row berubah.
	MarkPaid(ctx context.Context, orderID string, snap *orders.PaymentSnapshot) (bool, error)
	// MergeSnapshot: refresh metadata snapshot tanpa mengubah status.
	MergeSnapshot(ctx context.Context, orderID string, snap orders.PaymentSnapshot) (bool, error)
}

type CreditLedger interface {
	Credit(ctx context.Context, customerID string, amount decimal.Decimal, key, reason string) (decimal.Decimal, bool, error)
}

// PaidNotification: isi pesan konfirmasi yg di-dispatch sekali per order.
type PaidNotification struct {
	OrderID          string
	CustomerID       *string
	Total            decimal.Decimal
	Currency         string
	GatewayPaymentID string
	ReceiptRef       string
	CreditAwarded    decimal.Decimal
}

// Dispatcher: kirim notifikasi konfirmasi. Implementasi wajib non-blocking
// (path webhook harus ack cepat ke gateway).
type Dispatcher interface {
	DispatchPaid(ctx context.Context, n PaidNotification)
}

type Engine struct {
	store  OrderStore
	ledger CreditLedger
	notify Dispatcher
	rate   decimal.Decimal
	log    *slog.Logger
}

// New: semua dependency eksplisit, tidak ada singleton global.
func New(store OrderStore, ledger CreditLedger, notify Dispatcher, creditRate decimal.Decimal, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, ledger: ledger, notify: notify, rate: creditRate, log: log}
}

// Reconcile: terima salah satu dari dua sinyal independen dan putuskan apakah
// order benar-benar pindah ke paid. Aman dipanggil berkali-kali, dari proses
// mana pun, dgn interleaving apa pun: tepat satu call yg dapat OutcomePromoted.
func (e *Engine) Reconcile(ctx context.Context, orderID string, sig Signal) (Result, error) {
	switch s := sig.(type) {
	case WebhookSignal:
		return e.reconcileWebhook(ctx, orderID, s)
	case ConfirmSignal:
		return e.reconcileConfirm(ctx, orderID)
	default:
		return Result{}, fmt.Errorf("%w: unknown signal %T", ErrInvalidSignal, sig)
	}
}

func (e *Engine) reconcileWebhook(ctx context.Context, orderID string, s WebhookSignal) (Result, error) {
	if s.GatewayPaymentID == "" || s.GatewayStatus == "" {
		return Result{}, fmt.Errorf("%w: webhook signal missing payment id/status", ErrInvalidSignal)
	}

	// Status gateway belum selesai: tidak ada transisi, tidak ada side effect.
	// Metadata snapshot boleh di-refresh.
	if !gatewayComplete(s.GatewayStatus) {
		o, err := e.store.Get(ctx, orderID)
		if err != nil {
			return Result{}, err
		}
		if o.Status == orders.StatusPendingPayment {
			meta := s.Snapshot
			meta.GatewayPaymentID = s.GatewayPaymentID
			meta.GatewayStatus = s.GatewayStatus
			if _, err := e.store.MergeSnapshot(ctx, orderID, meta); err != nil {
				return Result{}, err
			}
			o, _ = e.store.Get(ctx, orderID)
		}
		return Result{Outcome: OutcomePending, Order: o}, nil
	}

	// Satu conditional write: pending_payment -> paid.
	snap := s.Snapshot
	snap.GatewayPaymentID = s.GatewayPaymentID
	snap.GatewayStatus = s.GatewayStatus
	changed, err := e.store.MarkPaid(ctx, orderID, &snap)
	if err != nil {
		return Result{}, err
	}
	if changed {
		o, err := e.store.Get(ctx, orderID)
		if err != nil {
			return Result{}, err
		}
		e.afterPromotion(ctx, o)
		return Result{Outcome: OutcomePromoted, Order: o}, nil
	}

	// Tidak ada row berubah: order sudah bukan pending. Lihat snapshot lama
	// (bukan cuma Order.Status) utk memutuskan fakta ini sudah diserap:
	// payment.created dan payment.updated bisa sama-sama klaim completion.
	o, err := e.store.Get(ctx, orderID)
	if err != nil {
		return Result{}, err
	}
	if orders.PaidOrLater(o.Status) {
		if o.Snapshot == nil || o.Snapshot.GatewayPaymentID == s.GatewayPaymentID || o.Snapshot.GatewayPaymentID == "" {
			// fakta sama: no-op murni, tapi metadata yg datang belakangan
			// (mis. receipt ref) boleh melengkapi snapshot.
			if _, err := e.store.MergeSnapshot(ctx, orderID, snap); err != nil {
				e.log.Error("snapshot refresh failed", "order_id", orderID, "err", err)
			}
			o, _ = e.store.Get(ctx, orderID)
		} else {
			e.log.Warn("webhook for different payment id ignored",
				"order_id", orderID, "got", s.GatewayPaymentID, "have", o.Snapshot.GatewayPaymentID)
		}
		return Result{Outcome: OutcomeAlreadyHandled, Order: o}, nil
	}

	// Terminal failure: tidak boleh ada jalan ke paid dari sini.
	e.log.Warn("completion webhook on terminal order refused",
		"order_id", orderID, "status", o.Status, "gateway_status", s.GatewayStatus)
	return Result{Outcome: OutcomeIncomplete, Order: o}, nil
}

func (e *Engine) reconcileConfirm(ctx context.Context, orderID string) (Result, error) {
	// Promosi optimistik: tidak bawa fakta payment, snapshot dibiarkan utk
	// diisi webhook yg menyusul.
	changed, err := e.store.MarkPaid(ctx, orderID, nil)
	if err != nil {
		return Result{}, err
	}
	o, err := e.store.Get(ctx, orderID)
	if err != nil {
		return Result{}, err
	}
	if changed {
		e.afterPromotion(ctx, o)
		return Result{Outcome: OutcomePromoted, Order: o}, nil
	}
	if orders.PaidOrLater(o.Status) {
		return Result{Outcome: OutcomeAlreadyHandled, Order: o}, nil
	}
	// cancelled / payment_failed: confirm ditolak, bukan sukses.
	return Result{Outcome: OutcomeIncomplete, Order: o}, nil
}

// afterPromotion: side effects, hanya utk call yg menang CAS. Urutan: ledger
// credit dulu, lalu notifikasi; dua-duanya idempotent sendiri-sendiri, jadi
// crash di tengah tetap aman di-retry. Kegagalan di sini TIDAK PERNAH
// membatalkan status paid (pembayarannya memang terjadi); cukup di-log utk
// rekonsiliasi manual.
func (e *Engine) afterPromotion(ctx context.Context, o *orders.Order) {
	n := PaidNotification{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Total:      o.Total,
	}
	if o.Snapshot != nil {
		n.Currency = o.Snapshot.Currency
		n.GatewayPaymentID = o.Snapshot.GatewayPaymentID
		n.ReceiptRef = o.Snapshot.ReceiptRef
	}

	if o.CustomerID != nil {
		amount := o.Total.Mul(e.rate).Round(2)
		if amount.IsPositive() {
			balance, applied, err := e.ledger.Credit(ctx, *o.CustomerID, amount,
				orders.EarnKey(o.ID), fmt.Sprintf("earned on order %s", o.ID))
			if err != nil {
				e.log.Error("store credit failed", "order_id", o.ID, "customer_id", *o.CustomerID, "err", err)
			} else {
				n.CreditAwarded = amount
				e.log.Info("store credit",
					"order_id", o.ID, "amount", amount, "balance", balance, "applied", applied)
			}
		}
	}

	e.notify.DispatchPaid(ctx, n)
}
