//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/domain/ports/adapter"
	"github.com/302ai/paywith302-demo/internal/domain/ports/repository"
)

// ---- Mock OrderRepository ----

type MockOrderRepo struct {
	mu      sync.Mutex
	data    map[string]*model.Order // by id
	byOutNo map[string]string       // out_order_no -> id

	SaveFunc                  func(ctx context.Context, tx repository.Tx, o *model.Order) error
	FindByIDFunc              func(ctx context.Context, tx repository.Tx, id string) (*model.Order, error)
	FindByOutOrderNoFunc      func(ctx context.Context, tx repository.Tx, outOrderNo string) (*model.Order, error)
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayOrderID string, paidAt *time.Time) (bool, error)
	ListPendingOlderThanFunc  func(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Order, error)
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{data: map[string]*model.Order{}, byOutNo: map[string]string{}}
}

func (r *MockOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, o)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if id, ok := r.byOutNo[o.OutOrderNo]; ok && id != o.ID {
		return domain.ErrDuplicate
	}
	cp := *o
	r.data[o.ID] = &cp
	r.byOutNo[o.OutOrderNo] = o.ID
	return nil
}

func (r *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.data[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockOrderRepo) FindByOutOrderNo(ctx context.Context, tx repository.Tx, outOrderNo string) (*model.Order, error) {
	if r.FindByOutOrderNoFunc != nil {
		return r.FindByOutOrderNoFunc(ctx, tx, outOrderNo)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byOutNo[outOrderNo]; ok {
		cp := *r.data[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockOrderRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Order, 0, len(r.data))
	for _, o := range r.data {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MockOrderRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayOrderID string, paidAt *time.Time) (bool, error) {
	if r.UpdateStatusIfPendingFunc != nil {
		return r.UpdateStatusIfPendingFunc(ctx, tx, id, status, gatewayOrderID, paidAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.Status != model.PaymentStatusPending {
		return false, nil
	}
	o.Status = status
	if gatewayOrderID != "" {
		o.GatewayOrderID = gatewayOrderID
	}
	if paidAt != nil {
		o.PaidAt = paidAt
	}
	o.UpdatedAt = time.Now()
	return true, nil
}

func (r *MockOrderRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Order, error) {
	if r.ListPendingOlderThanFunc != nil {
		return r.ListPendingOlderThanFunc(ctx, tx, olderThan, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Order
	for _, o := range r.data {
		if o.Status == model.PaymentStatusPending && o.CreatedAt.Before(olderThan) {
			cp := *o
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// ---- Mock NotificationRepository ----

type MockNotificationRepo struct {
	mu   sync.Mutex
	rows []*model.Notification

	SaveFunc func(ctx context.Context, tx repository.Tx, n *model.Notification) error
}

var _ repository.NotificationRepository = (*MockNotificationRepo)(nil)

func NewMockNotificationRepo() *MockNotificationRepo {
	return &MockNotificationRepo{}
}

func (r *MockNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *MockNotificationRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Notification, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

func (r *MockNotificationRepo) ListByOutOrderNo(ctx context.Context, tx repository.Tx, outOrderNo string, limit int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.rows {
		if n.OutOrderNo == outOrderNo {
			out = append(out, n)
		}
	}
	return out, nil
}

// Last returns the most recently saved row, or nil.
func (r *MockNotificationRepo) Last() *model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 {
		return nil
	}
	return r.rows[len(r.rows)-1]
}

// ---- Mock ReplayCache ----

type MockReplayCache struct {
	mu   sync.Mutex
	seen map[string]bool

	MarkOnceFunc func(ctx context.Context, token string, ttl time.Duration) (bool, error)
	Calls        int
}

var _ repository.ReplayCache = (*MockReplayCache)(nil)

func NewMockReplayCache() *MockReplayCache {
	return &MockReplayCache{seen: map[string]bool{}}
}

func (c *MockReplayCache) MarkOnce(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	c.Calls++
	fn := c.MarkOnceFunc
	c.mu.Unlock()
	if fn != nil {
		return fn(ctx, token, ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[token] {
		return false, nil
	}
	c.seen[token] = true
	return true, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately without a real transaction unless a
// custom WithTxFunc is assigned.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu sync.Mutex

	CreateOrderFunc func(ctx context.Context, o *model.Order, notifyURL string) (*adapter.CreateOrderResult, error)
	QueryOrderFunc  func(ctx context.Context, outOrderNo string) (*adapter.OrderStatus, error)

	Calls struct {
		Create []string
		Query  []string
	}
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) CreateOrder(ctx context.Context, o *model.Order, notifyURL string) (*adapter.CreateOrderResult, error) {
	g.mu.Lock()
	g.Calls.Create = append(g.Calls.Create, o.OutOrderNo)
	g.mu.Unlock()
	if g.CreateOrderFunc != nil {
		return g.CreateOrderFunc(ctx, o, notifyURL)
	}
	return &adapter.CreateOrderResult{
		GatewayOrderID: "gw-" + o.OutOrderNo,
		PayURL:         "https://checkout.302.ai/p/" + o.OutOrderNo,
		Signature:      strings.Repeat("ab", 32),
	}, nil
}

func (g *MockGateway) QueryOrder(ctx context.Context, outOrderNo string) (*adapter.OrderStatus, error) {
	g.mu.Lock()
	g.Calls.Query = append(g.Calls.Query, outOrderNo)
	g.mu.Unlock()
	if g.QueryOrderFunc != nil {
		return g.QueryOrderFunc(ctx, outOrderNo)
	}
	return &adapter.OrderStatus{StatusCode: 0, Status: model.PaymentStatusPending}, nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
