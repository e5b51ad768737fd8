package adapter

import (
	"context"
	"time"

	"github.com/302ai/paywith302-demo/internal/domain/model"
)

// CreateOrderResult carries the gateway's answer to an order creation.
type CreateOrderResult struct {
	GatewayOrderID string
	PayURL         string
	// Signature sent with the outbound request. Echoed to merchants only
	// when debug mode is on.
	Signature string
}

// OrderStatus is the gateway's answer to a status query.
type OrderStatus struct {
	StatusCode int
	Status     model.PaymentStatus
	PaidAt     *time.Time
}

// PaymentGateway is the hex port for the hosted-checkout provider. Every
// outbound call is signed with the shared secret before it leaves.
type PaymentGateway interface {
	Name() string

	// CreateOrder registers the order and returns the hosted checkout URL.
	CreateOrder(ctx context.Context, o *model.Order, notifyURL string) (*CreateOrderResult, error)
	// QueryOrder fetches the current payment status by merchant order number.
	QueryOrder(ctx context.Context, outOrderNo string) (*OrderStatus, error)
}
