// Package identity me-resolve event customer dari gateway ke account lokal
// (link existing / create baru / unlink), idempotent di bawah redelivery.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkpress/go-print-payments/internal/orders"
)

type CustomerStore interface {
	FindByGatewayID(ctx context.Context, gatewayCustomerID string) (*orders.CustomerAccount, error)
	FindByEmail(ctx context.Context, email string) (*orders.CustomerAccount, error)
	UpdateProfile(ctx context.Context, id, email, name string) error
	LinkGateway(ctx context.Context, id, gatewayCustomerID string) error
	Create(ctx context.Context, email, name string, gatewayCustomerID *string) (*orders.CustomerAccount, error)
	UnlinkGateway(ctx context.Context, gatewayCustomerID string) (bool, error)
}

type Reconciler struct {
	store CustomerStore
	log   *slog.Logger
}

func New(store CustomerStore, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, log: log}
}

// OnCustomerCreated: urutan resolve:
//  1. sudah ada account ter-link gateway id ini -> update profile, tanpa row baru;
//  2. ada account dgn email sama -> link ke gateway id;
//  3. sisanya -> create account baru dgn link terpasang.
//
// Redelivery event yg sama tidak pernah menghasilkan account kedua: unique
// constraint di gateway_customer_id dan email yg menjaga; kalau kalah race
// (ErrConflict / duplikat), resolve ulang sekali dari awal.
func (r *Reconciler) OnCustomerCreated(ctx context.Context, gatewayCustomerID, email, name string) (*orders.CustomerAccount, error) {
	if gatewayCustomerID == "" || email == "" {
		return nil, errors.New("customer event missing gateway id/email")
	}
	acct, err := r.resolve(ctx, gatewayCustomerID, email, name)
	if errors.Is(err, orders.ErrConflict) {
		acct, err = r.resolve(ctx, gatewayCustomerID, email, name)
	}
	return acct, err
}

func (r *Reconciler) resolve(ctx context.Context, gatewayCustomerID, email, name string) (*orders.CustomerAccount, error) {
	c, err := r.store.FindByGatewayID(ctx, gatewayCustomerID)
	switch {
	case err == nil:
		if err := r.store.UpdateProfile(ctx, c.ID, email, name); err != nil {
			return nil, err
		}
		c.Email, c.Name = email, name
		return c, nil
	case !errors.Is(err, orders.ErrNotFound):
		return nil, err
	}

	c, err = r.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := r.store.LinkGateway(ctx, c.ID, gatewayCustomerID); err != nil {
			return nil, err
		}
		c.GatewayCustomerID = &gatewayCustomerID
		return c, nil
	case !errors.Is(err, orders.ErrNotFound):
		return nil, err
	}

	return r.store.Create(ctx, email, name, &gatewayCustomerID)
}

// OnCustomerDeleted: clear link saja; account lokal tidak pernah dihapus
// supaya riwayat order tetap utuh. No-op kalau link sudah tidak ada.
func (r *Reconciler) OnCustomerDeleted(ctx context.Context, gatewayCustomerID string) error {
	if gatewayCustomerID == "" {
		return errors.New("customer event missing gateway id")
	}
	cleared, err := r.store.UnlinkGateway(ctx, gatewayCustomerID)
	if err != nil {
		return err
	}
	if !cleared {
		r.log.Info("unlink: no account linked", "gateway_customer_id", gatewayCustomerID)
	}
	return nil
}
