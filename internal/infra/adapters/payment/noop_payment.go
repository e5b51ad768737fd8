package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in tests and
// local development. Orders are accepted unconditionally and stay unpaid
// until MarkPaid is called.
type NoopPaymentGateway struct {
	mu     sync.Mutex
	seq    int64
	orders map[string]*adapter.OrderStatus // out_order_no -> current status
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		orders: make(map[string]*adapter.OrderStatus),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopPaymentGateway) CreateOrder(ctx context.Context, o *model.Order, notifyURL string) (*adapter.CreateOrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next()
	g.orders[o.OutOrderNo] = &adapter.OrderStatus{
		StatusCode: model.StatusCodeUnpaid,
		Status:     model.PaymentStatusPending,
	}
	return &adapter.CreateOrderResult{
		GatewayOrderID: id,
		PayURL:         "https://example.test/pay/" + id,
	}, nil
}

func (g *NoopPaymentGateway) QueryOrder(ctx context.Context, outOrderNo string) (*adapter.OrderStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.orders[outOrderNo]
	if !ok {
		return nil, fmt.Errorf("noop: %w: order %s", domain.ErrNotFound, outOrderNo)
	}
	cp := *st
	return &cp, nil
}

// MarkPaid settles an order so a later QueryOrder reports it completed.
func (g *NoopPaymentGateway) MarkPaid(outOrderNo string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now().UTC()
	g.orders[outOrderNo] = &adapter.OrderStatus{
		StatusCode: model.StatusCodeCompleted,
		Status:     model.PaymentStatusCompleted,
		PaidAt:     &now,
	}
}
