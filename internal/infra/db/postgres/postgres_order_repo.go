package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, out_order_no, gateway_order_id, amount, currency, subject, status, pay_url, created_at, updated_at, paid_at`

func (r *orderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (
  id, out_order_no, gateway_order_id, amount, currency, subject, status, pay_url, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  gateway_order_id=$3, amount=$4, currency=$5, subject=$6, status=$7, pay_url=$8, updated_at=$10, paid_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q, o.ID, o.OutOrderNo, o.GatewayOrderID, o.Amount, o.Currency, o.Subject, o.Status, o.PayURL, o.CreatedAt, o.UpdatedAt, o.PaidAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.OutOrderNo, &o.GatewayOrderID, &o.Amount, &o.Currency, &o.Subject, &o.Status, &o.PayURL, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func (r *orderRepo) FindByOutOrderNo(ctx context.Context, tx repository.Tx, outOrderNo string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE out_order_no=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, outOrderNo)
	if err != nil {
		return nil, err
	}

	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.OutOrderNo, &o.GatewayOrderID, &o.Amount, &o.Currency, &o.Subject, &o.Status, &o.PayURL, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func (r *orderRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit, offset)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o := new(model.Order)
		if err := rows.Scan(&o.ID, &o.OutOrderNo, &o.GatewayOrderID, &o.Amount, &o.Currency, &o.Subject, &o.Status, &o.PayURL, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, o)
	}
	return out, nil
}

// UpdateStatusIfPending atomically applies a transition only while the order
// is still pending, so late or duplicate webhooks cannot overwrite a
// terminal status.
func (r *orderRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayOrderID string, paidAt *time.Time) (bool, error) {
	const q = `
UPDATE orders
   SET status = $2,
       gateway_order_id = COALESCE(NULLIF($3,''), gateway_order_id),
       paid_at = COALESCE($4, paid_at),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), gatewayOrderID, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *orderRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o := new(model.Order)
		if err := rows.Scan(&o.ID, &o.OutOrderNo, &o.GatewayOrderID, &o.Amount, &o.Currency, &o.Subject, &o.Status, &o.PayURL, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, o)
	}
	return out, nil
}
