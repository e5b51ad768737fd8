//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/302ai/paywith302-demo/internal/domain/model"

	"github.com/google/uuid"
)

func TestNotificationRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewNotificationRepo(testPool)

	newNotification := func(outOrderNo, verdict string, accepted bool) *model.Notification {
		paidAt := time.Now().Truncate(time.Millisecond)
		return &model.Notification{
			ID:         uuid.NewString(),
			OrderID:    "gw-1",
			OutOrderNo: outOrderNo,
			StatusCode: 1,
			Status:     model.PaymentStatusCompleted,
			Amount:     "39.99",
			Currency:   "USD",
			Verdict:    verdict,
			Accepted:   accepted,
			RawBody:    []byte(`{"out_order_no":"` + outOrderNo + `","payment_status":1}`),
			PaidAt:     &paidAt,
			ReceivedAt: time.Now().Truncate(time.Millisecond),
		}
	}

	t.Run("should save and list notifications", func(t *testing.T) {
		cleanup(t)

		n := newNotification("out-5001", "ok", true)
		if err := repo.Save(ctx, nil, n); err != nil {
			t.Fatalf("Failed to save notification: %v", err)
		}

		results, err := repo.List(ctx, nil, 10, 0)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(results))
		}
		got := results[0]
		if got.OutOrderNo != "out-5001" || got.Verdict != "ok" || !got.Accepted {
			t.Fatalf("notification round-trip mismatch: %+v", got)
		}
		if got.PaidAt == nil || !got.PaidAt.Equal(*n.PaidAt) {
			t.Errorf("PaidAt mismatch, expected %v got %v", n.PaidAt, got.PaidAt)
		}
		if string(got.RawBody) == "" {
			t.Error("expected raw body to be stored")
		}
	})

	t.Run("should store rejected deliveries without a raw body", func(t *testing.T) {
		cleanup(t)

		n := newNotification("out-5002", "signature_mismatch", false)
		n.RawBody = nil
		n.PaidAt = nil
		if err := repo.Save(ctx, nil, n); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		results, err := repo.ListByOutOrderNo(ctx, nil, "out-5002", 10)
		if err != nil {
			t.Fatalf("ListByOutOrderNo failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(results))
		}
		if results[0].Accepted {
			t.Error("expected rejected delivery")
		}
		if results[0].PaidAt != nil {
			t.Error("expected nil PaidAt")
		}
	})

	t.Run("should store a body that is not valid JSON", func(t *testing.T) {
		cleanup(t)

		n := newNotification("out-5003", "invalid_payload", false)
		n.RawBody = []byte("definitely not json")
		if err := repo.Save(ctx, nil, n); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		results, err := repo.ListByOutOrderNo(ctx, nil, "out-5003", 10)
		if err != nil {
			t.Fatalf("ListByOutOrderNo failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(results))
		}
		if len(results[0].RawBody) == 0 {
			t.Error("expected the malformed body to be preserved")
		}
	})

	t.Run("should filter by out_order_no", func(t *testing.T) {
		cleanup(t)

		repo.Save(ctx, nil, newNotification("out-6001", "ok", true))
		repo.Save(ctx, nil, newNotification("out-6001", "replayed", false))
		repo.Save(ctx, nil, newNotification("out-6002", "ok", true))

		results, err := repo.ListByOutOrderNo(ctx, nil, "out-6001", 10)
		if err != nil {
			t.Fatalf("ListByOutOrderNo failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 notifications for out-6001, got %d", len(results))
		}
	})
}
