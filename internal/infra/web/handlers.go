package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/infra/metrics"
	"github.com/302ai/paywith302-demo/internal/usecase"
)

// ordersListHandler returns a paginated list of orders.
// It accepts 'offset' and 'limit' query parameters.
func ordersListHandler(orderUC usecase.OrderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Parse query parameters with defaults
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50 // Default page size
		}
		if offset < 0 {
			offset = 0
		}

		orders, err := orderUC.List(ctx, limit, offset)
		if err != nil {
			metrics.IncAdminCommand("orders_list", "error")
			http.Error(w, "Failed to list orders", http.StatusInternalServerError)
			return
		}
		metrics.IncAdminCommand("orders_list", "ok")

		response := struct {
			Data   []*model.Order `json:"data"`
			Limit  int            `json:"limit"`
			Offset int            `json:"offset"`
		}{
			Data:   orders,
			Limit:  limit,
			Offset: offset,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func orderGetHandler(orderUC usecase.OrderUseCase, webhookUC usecase.WebhookUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Extract order ID from URL path: /api/v1/orders/{id}
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
		if id == "" {
			http.Error(w, "Order ID is required", http.StatusBadRequest)
			return
		}

		order, err := orderUC.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get order", http.StatusInternalServerError)
			return
		}

		notifications, err := webhookUC.ListNotificationsByOutOrderNo(ctx, order.OutOrderNo, 50)
		if err != nil {
			http.Error(w, "Failed to get order notifications", http.StatusInternalServerError)
			return
		}
		metrics.IncAdminCommand("order_get", "ok")

		response := struct {
			Order         *model.Order          `json:"order"`
			Notifications []*model.Notification `json:"notifications"`
		}{
			Order:         order,
			Notifications: notifications,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// orderSyncHandler forces a gateway status query for one order, the same
// path the reconciler takes on its own schedule.
func orderSyncHandler(orderUC usecase.OrderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Path is /api/v1/orders/{id}/sync
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
		id = strings.TrimSuffix(id, "/sync")
		id = strings.TrimSuffix(id, "/")
		if id == "" {
			http.Error(w, "Order ID is required", http.StatusBadRequest)
			return
		}

		order, err := orderUC.SyncStatus(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			metrics.IncAdminCommand("order_sync", "error")
			http.Error(w, "Failed to sync order", http.StatusInternalServerError)
			return
		}
		metrics.IncAdminCommand("order_sync", "ok")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(order)
	}
}

// notificationsListHandler returns recent webhook deliveries, optionally
// filtered by the 'out_order_no' query parameter.
func notificationsListHandler(webhookUC usecase.WebhookUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		var (
			notifications []*model.Notification
			err           error
		)
		if outNo := r.URL.Query().Get("out_order_no"); outNo != "" {
			notifications, err = webhookUC.ListNotificationsByOutOrderNo(ctx, outNo, limit)
		} else {
			notifications, err = webhookUC.ListNotifications(ctx, limit, offset)
		}
		if err != nil {
			metrics.IncAdminCommand("notifications_list", "error")
			http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
			return
		}
		metrics.IncAdminCommand("notifications_list", "ok")

		response := struct {
			Data   []*model.Notification `json:"data"`
			Limit  int                   `json:"limit"`
			Offset int                   `json:"offset"`
		}{
			Data:   notifications,
			Limit:  limit,
			Offset: offset,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
