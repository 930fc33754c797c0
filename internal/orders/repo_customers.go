package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepo struct{ DB *pgxpool.Pool }

const customerCols = `id, email, name, gateway_customer_id, store_credit_balance, created_at, updated_at`

func scanCustomer(row pgx.Row) (*CustomerAccount, error) {
	var c CustomerAccount
	err := row.Scan(&c.ID, &c.Email, &c.Name, &c.GatewayCustomerID, &c.StoreCreditBalance, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) Get(ctx context.Context, id string) (*CustomerAccount, error) {
	return scanCustomer(r.DB.QueryRow(ctx, `SELECT `+customerCols+` FROM customers WHERE id=$1`, id))
}

func (r *CustomerRepo) FindByGatewayID(ctx context.Context, gatewayCustomerID string) (*CustomerAccount, error) {
	return scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE gateway_customer_id=$1`, gatewayCustomerID))
}

func (r *CustomerRepo) FindByEmail(ctx context.Context, email string) (*CustomerAccount, error) {
	return scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE email=$1`, email))
}

func (r *CustomerRepo) UpdateProfile(ctx context.Context, id, email, name string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE customers SET email=$2, name=$3, updated_at=now() WHERE id=$1`, id, email, name)
	if err != nil {
		if uniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkGateway: pasang link gateway ke account lokal. 23505 berarti gateway id
// sudah keburu di-link proses lain -> ErrConflict, caller resolve ulang.
func (r *CustomerRepo) LinkGateway(ctx context.Context, id, gatewayCustomerID string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE customers SET gateway_customer_id=$2, updated_at=now() WHERE id=$1`, id, gatewayCustomerID)
	if err != nil {
		if uniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) Create(ctx context.Context, email, name string, gatewayCustomerID *string) (*CustomerAccount, error) {
	id := uuid.NewString()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO customers(id, email, name, gateway_customer_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+customerCols+`
	`, id, email, name, gatewayCustomerID)
	c, err := scanCustomer(row)
	if err != nil {
		if uniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return c, nil
}

// UnlinkGateway: clear link saja. Account TIDAK pernah dihapus supaya
// riwayat order tetap bisa diatribusikan.
func (r *CustomerRepo) UnlinkGateway(ctx context.Context, gatewayCustomerID string) (bool, error) {
	ct, err := r.DB.Exec(ctx,
		`UPDATE customers SET gateway_customer_id=NULL, updated_at=now() WHERE gateway_customer_id=$1`,
		gatewayCustomerID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
