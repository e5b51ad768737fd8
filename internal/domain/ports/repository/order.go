package repository

import (
	"context"
	"time"

	"github.com/302ai/paywith302-demo/internal/domain/model"
)

type OrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	FindByOutOrderNo(ctx context.Context, tx Tx, outOrderNo string) (*model.Order, error)
	List(ctx context.Context, tx Tx, limit, offset int) ([]*model.Order, error)
	// UpdateStatusIfPending applies a terminal transition only while the
	// order is still pending; reports whether a row changed.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, gatewayOrderID string, paidAt *time.Time) (bool, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Order, error)
}
