package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/inkpress/go-print-payments/internal/gateway"
	"github.com/inkpress/go-print-payments/internal/identity"
	"github.com/inkpress/go-print-payments/internal/orders"
	"github.com/inkpress/go-print-payments/internal/recon"
	"github.com/inkpress/go-print-payments/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// OrderStore: kebutuhan handler di luar engine (intake + read).
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	CreatePending(ctx context.Context, clientRef string, customerID *string, total, subtotal, tax, shipping, discount decimal.Decimal) (string, bool, error)
}

type PaymentsHandler struct {
	Engine   *recon.Engine
	Identity *identity.Reconciler
	Orders   OrderStore
	Redis    *redis.Client // boleh nil: dedup/cache jadi skip, kebenaran tetap di Postgres
	Service  string
	Log      *slog.Logger
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/payment", h.paymentWebhook)
	r.Post("/checkout/confirm", h.checkoutConfirm)
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type orderView struct {
	ID     string           `json:"id"`
	Status orders.Status    `json:"status"`
	Total  *decimal.Decimal `json:"total,omitempty"`
}

func viewOf(o *orders.Order, withTotal bool) orderView {
	v := orderView{ID: o.ID, Status: o.Status}
	if withTotal {
		t := o.Total
		v.Total = &t
	}
	return v
}

// paymentWebhook: POST /webhooks/payment.
// Kontrak dgn provider: begitu event sudah ditangani ATAU sudah di-log
// sebagai gagal, jawab 200. Error internal tidak boleh bikin provider
// retry storm; redelivery toh aman karena seluruh path idempotent.
func (h *PaymentsHandler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body"})
		return
	}
	ev, err := gateway.Parse(body)
	if err != nil {
		if errors.Is(err, gateway.ErrUnknownType) {
			// tipe event baru dari provider: ack dan abaikan
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		// payload rusak: retry tidak akan pernah sukses, 400 saja
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed payload"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path dedup per event_id (best-effort; constraint DB tetap pegangan).
	dkey := fmt.Sprintf(redisx.KeyDedup, h.Service, ev.ID)
	if h.Redis != nil {
		if exists, _ := redisx.Exists(ctx, h.Redis, dkey); exists {
			writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}
	}

	switch {
	case ev.Payment != nil:
		res, err := h.Engine.Reconcile(ctx, ev.Payment.OrderID, recon.WebhookSignal{
			EventID:          ev.ID,
			GatewayPaymentID: ev.Payment.GatewayPaymentID,
			GatewayStatus:    ev.Payment.GatewayStatus,
			Snapshot:         ev.Payment.Snapshot,
		})
		if err != nil {
			// log-and-ack: lihat catatan failure semantics di DESIGN.md
			h.Log.Error("webhook reconcile failed", "event_id", ev.ID,
				"order_id", ev.Payment.OrderID, "err", err)
			writeJSON(w, http.StatusOK, map[string]string{"status": "logged"})
			return
		}
		if res.Outcome == recon.OutcomePromoted {
			h.cacheStatus(ctx, res.Order)
		}
		h.markHandled(ctx, dkey)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "outcome": string(res.Outcome)})

	case ev.Customer != nil:
		var err error
		if ev.Customer.Deleted {
			err = h.Identity.OnCustomerDeleted(ctx, ev.Customer.GatewayCustomerID)
		} else {
			_, err = h.Identity.OnCustomerCreated(ctx, ev.Customer.GatewayCustomerID, ev.Customer.Email, ev.Customer.Name)
		}
		if err != nil {
			h.Log.Error("customer reconcile failed", "event_id", ev.ID,
				"gateway_customer_id", ev.Customer.GatewayCustomerID, "err", err)
			writeJSON(w, http.StatusOK, map[string]string{"status": "logged"})
			return
		}
		h.markHandled(ctx, dkey)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h *PaymentsHandler) markHandled(ctx context.Context, dkey string) {
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
}

type confirmReq struct {
	OrderID string `json:"orderId"`
}

type confirmResp struct {
	Success bool      `json:"success"`
	Order   orderView `json:"order"`
}

// checkoutConfirm: POST /checkout/confirm. Jawaban harus cepat dan pasti:
// sukses / belum / error. Tidak pernah nunggu hasil dispatch notifikasi.
func (h *PaymentsHandler) checkoutConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if _, err := uuid.Parse(req.OrderID); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid orderId"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.Reconcile(ctx, req.OrderID, recon.ConfirmSignal{})
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		// beda dgn path webhook: caller sinkron berhak lihat error store
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}

	switch res.Outcome {
	case recon.OutcomePromoted, recon.OutcomeAlreadyHandled:
		h.cacheStatus(ctx, res.Order)
		writeJSON(w, http.StatusOK, confirmResp{Success: true, Order: viewOf(res.Order, true)})
	default:
		writeJSON(w, http.StatusAccepted, confirmResp{Success: false, Order: viewOf(res.Order, false)})
	}
}

type createOrderReq struct {
	ClientRef  string          `json:"client_ref"`
	CustomerID *string         `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Shipping   decimal.Decimal `json:"shipping"`
	Discount   decimal.Decimal `json:"discount"`
}

// createOrder: intake dari collaborator checkout; order lahir pending_payment.
// Idempotent via client_ref.
func (h *PaymentsHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ClientRef == "" || !req.Total.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing client_ref or non-positive total"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, existed, err := h.Orders.CreatePending(ctx, req.ClientRef, req.CustomerID,
		req.Total, req.Subtotal, req.Tax, req.Shipping, req.Discount)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{"order_id": id, "idempotent": existed})
}

func (h *PaymentsHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	// 2) fallback DB
	o, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, viewOf(o, true))
}

func (h *PaymentsHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	if h.Redis == nil || o == nil {
		return
	}
	b, err := json.Marshal(viewOf(o, true))
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
