//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/domain/ports/adapter"
	"github.com/302ai/paywith302-demo/internal/domain/ports/repository"
	"github.com/302ai/paywith302-demo/internal/signing"
	"github.com/302ai/paywith302-demo/internal/usecase"
)

// --- Mock Repositories (Ports) ---

type mockOrderRepo struct {
	repository.OrderRepository // Embed interface for forward compatibility
	mu                         sync.Mutex
	orders                     []*model.Order
	FindByIDError              error // To simulate errors
	ListError                  error
}

func (m *mockOrderRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]*model.Order, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	end := offset + limit
	if end > len(m.orders) {
		end = len(m.orders)
	}
	if offset >= len(m.orders) || offset > end {
		return []*model.Order{}, nil
	}
	return m.orders[offset:end], nil
}

func (m *mockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrderRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayOrderID string, paidAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id && o.Status == model.PaymentStatusPending {
			o.Status = status
			if gatewayOrderID != "" {
				o.GatewayOrderID = gatewayOrderID
			}
			o.PaidAt = paidAt
			return true, nil
		}
	}
	return false, nil
}

type mockNotificationRepo struct {
	repository.NotificationRepository // Embed interface
	mu                                sync.Mutex
	notifications                     []*model.Notification
	ListError                         error
}

func (m *mockNotificationRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]*model.Notification, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	end := offset + limit
	if end > len(m.notifications) {
		end = len(m.notifications)
	}
	if offset >= len(m.notifications) || offset > end {
		return []*model.Notification{}, nil
	}
	return m.notifications[offset:end], nil
}

func (m *mockNotificationRepo) ListByOutOrderNo(ctx context.Context, tx repository.Tx, outOrderNo string, limit int) ([]*model.Notification, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Notification, 0)
	for _, n := range m.notifications {
		if n.OutOrderNo == outOrderNo && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

type mockGateway struct {
	adapter.PaymentGateway // Embed interface
	QueryStatus            model.PaymentStatus
	QueryPaidAt            *time.Time
	QueryError             error
}

func (m *mockGateway) QueryOrder(ctx context.Context, outOrderNo string) (*adapter.OrderStatus, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	status := m.QueryStatus
	if status == "" {
		status = model.PaymentStatusPending
	}
	return &adapter.OrderStatus{Status: status, PaidAt: m.QueryPaidAt}, nil
}

// newListOnlyWebhookUC builds a real webhook use case for the read paths;
// verification collaborators are never touched by the list handlers.
func newListOnlyWebhookUC(notes repository.NotificationRepository) usecase.WebhookUseCase {
	v, _ := signing.NewValidator("admin-test-secret")
	return usecase.NewWebhookUseCase(v, nil, notes, nil, nil, 5*time.Minute, newTestLogger())
}
