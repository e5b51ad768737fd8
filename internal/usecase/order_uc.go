// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/domain/ports/adapter"
	"github.com/302ai/paywith302-demo/internal/domain/ports/repository"
	"github.com/302ai/paywith302-demo/internal/infra/logging"
	"github.com/302ai/paywith302-demo/internal/infra/metrics"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

// CreateOrderInput is what a merchant caller supplies; everything else is
// generated or defaulted here.
type CreateOrderInput struct {
	OutOrderNo string // optional, generated when empty
	Amount     string // decimal literal, e.g. "39.99"
	Currency   string // defaults to USD
	Subject    string
}

// OrderUseCase exposes merchant-side order operations.
type OrderUseCase interface {
	// Create registers the order with the gateway and persists it. The second
	// return value is the request signature, for debug echoing only.
	Create(ctx context.Context, in CreateOrderInput) (*model.Order, string, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, limit, offset int) ([]*model.Order, error)
	// SyncStatus asks the gateway for the current payment status and applies
	// it when the order is still pending.
	SyncStatus(ctx context.Context, id string) (*model.Order, error)
	// ListStale returns pending orders created before the cutoff, for the
	// reconciler loop.
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.Order, error)
}

type orderUC struct {
	orders  repository.OrderRepository
	gateway adapter.PaymentGateway
	log     *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, gateway adapter.PaymentGateway, logger *zerolog.Logger) *orderUC {
	return &orderUC{orders: orders, gateway: gateway, log: logger}
}

func (u *orderUC) Create(ctx context.Context, in CreateOrderInput) (*model.Order, string, error) {
	defer logging.TraceDuration(u.log, "OrderUC.Create")()

	if err := validateCreateInput(&in); err != nil {
		metrics.IncOrderCreated("invalid")
		return nil, "", err
	}

	// A caller-chosen order number must not collide with an existing order
	// before we register anything with the gateway.
	if _, err := u.orders.FindByOutOrderNo(ctx, nil, in.OutOrderNo); err == nil {
		metrics.IncOrderCreated("invalid")
		return nil, "", fmt.Errorf("%w: out_order_no %s", domain.ErrDuplicate, in.OutOrderNo)
	} else if !errors.Is(err, domain.ErrNotFound) {
		metrics.IncOrderCreated("storage_error")
		return nil, "", err
	}

	now := time.Now()
	o := &model.Order{
		ID:         uuid.NewString(),
		OutOrderNo: in.OutOrderNo,
		Amount:     in.Amount,
		Currency:   in.Currency,
		Subject:    in.Subject,
		Status:     model.PaymentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res, err := u.gateway.CreateOrder(ctx, o, "")
	if err != nil {
		metrics.IncOrderCreated("gateway_error")
		u.log.Error().Err(err).Str("out_order_no", o.OutOrderNo).Msg("gateway order creation failed")
		return nil, "", err
	}
	o.GatewayOrderID = res.GatewayOrderID
	o.PayURL = res.PayURL

	if err := u.orders.Save(ctx, nil, o); err != nil {
		metrics.IncOrderCreated("storage_error")
		return nil, "", err
	}
	metrics.IncOrderCreated("ok")
	u.log.Info().Str("order_id", o.ID).Str("out_order_no", o.OutOrderNo).Str("gateway_order_id", o.GatewayOrderID).Msg("order created")
	return o, res.Signature, nil
}

func (u *orderUC) Get(ctx context.Context, id string) (*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.Get")()
	return u.orders.FindByID(ctx, nil, id)
}

func (u *orderUC) List(ctx context.Context, limit, offset int) ([]*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.List")()
	return u.orders.List(ctx, nil, limit, offset)
}

func (u *orderUC) SyncStatus(ctx context.Context, id string) (*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.SyncStatus")()

	o, err := u.orders.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return o, nil
	}

	st, err := u.gateway.QueryOrder(ctx, o.OutOrderNo)
	if err != nil {
		return nil, err
	}
	if !st.Status.Terminal() {
		return o, nil
	}

	// The conditional update keeps a webhook that raced us authoritative.
	updated, err := u.orders.UpdateStatusIfPending(ctx, nil, o.ID, st.Status, "", st.PaidAt)
	if err != nil {
		return nil, err
	}
	if updated {
		metrics.IncPaymentStatus(string(st.Status))
		u.log.Info().Str("order_id", o.ID).Str("status", string(st.Status)).Msg("order status synced from gateway")
		o.Status = st.Status
		o.PaidAt = st.PaidAt
		o.UpdatedAt = time.Now()
		return o, nil
	}
	return u.orders.FindByID(ctx, nil, o.ID)
}

func (u *orderUC) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.Order, error) {
	return u.orders.ListPendingOlderThan(ctx, nil, olderThan, limit)
}

func validateCreateInput(in *CreateOrderInput) error {
	amt, err := strconv.ParseFloat(in.Amount, 64)
	if err != nil || amt <= 0 {
		return fmt.Errorf("%w: amount must be a positive decimal literal", domain.ErrInvalidArgument)
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}
	if in.OutOrderNo == "" {
		in.OutOrderNo = ulid.Make().String()
	}
	return nil
}
