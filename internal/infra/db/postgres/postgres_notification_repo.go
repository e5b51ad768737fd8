package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/domain/ports/repository"
)

var _ repository.NotificationRepository = (*notificationRepo)(nil)

type notificationRepo struct{ pool *pgxpool.Pool }

func NewNotificationRepo(pool *pgxpool.Pool) *notificationRepo {
	return &notificationRepo{pool: pool}
}

const notificationColumns = `id, order_id, out_order_no, status_code, status, amount, currency, verdict, accepted, raw_body, paid_at, received_at`

func (r *notificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	const q = `
INSERT INTO webhook_notifications (
  id, order_id, out_order_no, status_code, status, amount, currency, verdict, accepted, raw_body, paid_at, received_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,'')::jsonb,$11,$12
);`

	// A rejected delivery may carry a body that is not valid JSON. Stored as
	// a JSON string in that case, so the jsonb cast cannot lose the audit row.
	raw := string(n.RawBody)
	if raw != "" && !json.Valid(n.RawBody) {
		b, _ := json.Marshal(raw)
		raw = string(b)
	}
	_, err := execSQL(ctx, r.pool, tx, q, n.ID, n.OrderID, n.OutOrderNo, n.StatusCode, n.Status, n.Amount, n.Currency, n.Verdict, n.Accepted, raw, n.PaidAt, n.ReceivedAt)
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

func (r *notificationRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + notificationColumns + ` FROM webhook_notifications ORDER BY received_at DESC LIMIT $1 OFFSET $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit, offset)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n := new(model.Notification)
		if err := rows.Scan(&n.ID, &n.OrderID, &n.OutOrderNo, &n.StatusCode, &n.Status, &n.Amount, &n.Currency, &n.Verdict, &n.Accepted, &n.RawBody, &n.PaidAt, &n.ReceivedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *notificationRepo) ListByOutOrderNo(ctx context.Context, tx repository.Tx, outOrderNo string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + notificationColumns + ` FROM webhook_notifications WHERE out_order_no=$1 ORDER BY received_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, outOrderNo, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n := new(model.Notification)
		if err := rows.Scan(&n.ID, &n.OrderID, &n.OutOrderNo, &n.StatusCode, &n.Status, &n.Amount, &n.Currency, &n.Verdict, &n.Accepted, &n.RawBody, &n.PaidAt, &n.ReceivedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, n)
	}
	return out, nil
}
