package repository

import (
	"context"

	"github.com/302ai/paywith302-demo/internal/domain/model"
)

type NotificationRepository interface {
	Save(ctx context.Context, tx Tx, n *model.Notification) error
	List(ctx context.Context, tx Tx, limit, offset int) ([]*model.Notification, error)
	ListByOutOrderNo(ctx context.Context, tx Tx, outOrderNo string, limit int) ([]*model.Notification, error)
}
