// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	"github.com/302ai/paywith302-demo/internal/domain/ports/repository"
	"github.com/302ai/paywith302-demo/internal/infra/logging"
	"github.com/302ai/paywith302-demo/internal/infra/metrics"
	"github.com/302ai/paywith302-demo/internal/signing"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase processes payment-status deliveries from the gateway.
type WebhookUseCase interface {
	// HandleNotification verifies one delivery and applies the status change.
	// accepted=true means the sender should treat the message as consumed;
	// the verdict names the failure class otherwise. A non-nil error is an
	// internal fault (storage down), not a bad message.
	HandleNotification(ctx context.Context, body []byte) (accepted bool, verdict string, err error)

	ListNotifications(ctx context.Context, limit, offset int) ([]*model.Notification, error)
	ListNotificationsByOutOrderNo(ctx context.Context, outOrderNo string, limit int) ([]*model.Notification, error)
}

type webhookUC struct {
	validator     *signing.Validator
	orders        repository.OrderRepository
	notifications repository.NotificationRepository
	replays       repository.ReplayCache
	tm            repository.TransactionManager
	tolerance     time.Duration
	log           *zerolog.Logger
}

func NewWebhookUseCase(
	validator *signing.Validator,
	orders repository.OrderRepository,
	notifications repository.NotificationRepository,
	replays repository.ReplayCache,
	tm repository.TransactionManager,
	tolerance time.Duration,
	logger *zerolog.Logger,
) *webhookUC {
	return &webhookUC{
		validator:     validator,
		orders:        orders,
		notifications: notifications,
		replays:       replays,
		tm:            tm,
		tolerance:     tolerance,
		log:           logger,
	}
}

func (u *webhookUC) HandleNotification(ctx context.Context, body []byte) (bool, string, error) {
	defer logging.TraceDuration(u.log, "WebhookUC.HandleNotification")()
	start := time.Now()
	accepted, verdict, err := u.handle(ctx, body)
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	if err == nil {
		metrics.IncWebhookVerification(verdict)
	}
	metrics.ObserveWebhookHandle(result, time.Since(start).Seconds())
	return accepted, verdict, err
}

func (u *webhookUC) handle(ctx context.Context, body []byte) (bool, string, error) {
	fields, err := signing.FromJSONObject(body)
	if err != nil {
		u.log.Warn().Str("verdict", model.VerdictInvalidPayload).Msg("webhook body is not a JSON object")
		u.record(ctx, nil, body, fields, model.VerdictInvalidPayload, false)
		return false, model.VerdictInvalidPayload, nil
	}

	signature, _ := fields["signature"].AsString()
	vd := u.validator.Check(fields, signature, u.tolerance)
	if !vd.Authentic {
		// The verdict is safe to log; the expected signature never is.
		u.log.Warn().
			Str("verdict", string(vd.Reason)).
			Str("out_order_no", fields["out_order_no"].Literal()).
			Dur("age", vd.Age).
			Msg("webhook rejected")
		u.record(ctx, nil, body, fields, string(vd.Reason), false)
		return false, string(vd.Reason), nil
	}

	// An authentic signature uniquely identifies the canonical message, so
	// it doubles as the replay marker. The freshness window is symmetric,
	// so a future-dated message can stay fresh for up to twice the
	// tolerance; the marker must outlive that. Marker loss only widens the
	// window back to the timestamp tolerance, so a cache outage does not
	// reject genuine payments.
	ttl := 2 * u.tolerance
	first, err := u.replays.MarkOnce(ctx, signature, ttl)
	if err != nil {
		u.log.Warn().Err(err).Msg("replay cache unavailable, relying on timestamp tolerance")
	} else if !first {
		u.log.Warn().Str("verdict", model.VerdictReplayed).Str("out_order_no", fields["out_order_no"].Literal()).Msg("webhook rejected")
		u.record(ctx, nil, body, fields, model.VerdictReplayed, false)
		return false, model.VerdictReplayed, nil
	}

	outOrderNo, _ := fields["out_order_no"].AsString()
	statusCode, codeOK := fields["payment_status"].AsInt64()
	if outOrderNo == "" || !codeOK {
		u.log.Warn().Str("verdict", model.VerdictInvalidPayload).Msg("webhook missing out_order_no or payment_status")
		u.record(ctx, nil, body, fields, model.VerdictInvalidPayload, false)
		return false, model.VerdictInvalidPayload, nil
	}
	status := model.PaymentStatusFromCode(int(statusCode))
	paidAt := parseNotifyPaidAt(fields["paid_at"])

	var verdict string
	var applied bool
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	txErr := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		var err error
		verdict, applied, err = u.apply(ctx, tx, fields, outOrderNo, status, paidAt)
		if err != nil {
			return err
		}
		n := buildNotification(body, fields, verdict, verdict == "ok")
		return u.notifications.Save(ctx, tx, n)
	})
	if txErr != nil {
		return false, verdict, txErr
	}
	if applied {
		metrics.IncPaymentStatus(string(status))
	}
	if verdict != "ok" {
		u.log.Warn().Str("verdict", verdict).Str("out_order_no", outOrderNo).Msg("webhook rejected")
		return false, verdict, nil
	}
	u.log.Info().
		Str("out_order_no", outOrderNo).
		Str("status", string(status)).
		Bool("applied", applied).
		Msg("webhook accepted")
	return true, verdict, nil
}

// apply locks the order row and decides the verdict. Bad-message verdicts
// come back as values so the notification record still commits; only
// infrastructure faults abort the transaction.
func (u *webhookUC) apply(ctx context.Context, tx repository.Tx, fields signing.Params, outOrderNo string, status model.PaymentStatus, paidAt *time.Time) (string, bool, error) {
	o, err := u.orders.FindByOutOrderNo(ctx, tx, outOrderNo)
	if errors.Is(err, domain.ErrNotFound) {
		return model.VerdictOrderNotFound, false, nil
	}
	if err != nil {
		return "", false, err
	}

	// The amount must match the signed literal exactly; "39.99" and "39.990"
	// are different messages.
	if amount := fields["amount"].Literal(); amount != "" && amount != o.Amount {
		return model.VerdictAmountMismatch, false, nil
	}

	if !status.Terminal() {
		// An unpaid ping carries no transition; acknowledge it so the
		// gateway stops retrying.
		return "ok", false, nil
	}

	gatewayOrderID := fields["order_id"].Literal()
	updated, err := u.orders.UpdateStatusIfPending(ctx, tx, o.ID, status, gatewayOrderID, paidAt)
	if err != nil {
		return "", false, err
	}
	if updated {
		return "ok", true, nil
	}
	if o.Status == status {
		// Same terminal status delivered again outside the replay window.
		return "ok", false, nil
	}
	return model.VerdictStateConflict, false, nil
}

func (u *webhookUC) ListNotifications(ctx context.Context, limit, offset int) ([]*model.Notification, error) {
	defer logging.TraceDuration(u.log, "WebhookUC.ListNotifications")()
	return u.notifications.List(ctx, nil, limit, offset)
}

func (u *webhookUC) ListNotificationsByOutOrderNo(ctx context.Context, outOrderNo string, limit int) ([]*model.Notification, error) {
	defer logging.TraceDuration(u.log, "WebhookUC.ListNotificationsByOutOrderNo")()
	return u.notifications.ListByOutOrderNo(ctx, nil, outOrderNo, limit)
}

// record persists an audit row for deliveries rejected before the order
// transaction starts. Best effort: a full audit trail is not worth failing
// the webhook response over.
func (u *webhookUC) record(ctx context.Context, tx repository.Tx, body []byte, fields signing.Params, verdict string, accepted bool) {
	n := buildNotification(body, fields, verdict, accepted)
	if err := u.notifications.Save(ctx, tx, n); err != nil {
		u.log.Warn().Err(err).Str("verdict", verdict).Msg("failed to record webhook delivery")
	}
}

func buildNotification(body []byte, fields signing.Params, verdict string, accepted bool) *model.Notification {
	n := &model.Notification{
		ID:         uuid.NewString(),
		Verdict:    verdict,
		Accepted:   accepted,
		RawBody:    body,
		ReceivedAt: time.Now(),
	}
	if fields == nil {
		return n
	}
	n.OrderID = fields["order_id"].Literal()
	n.OutOrderNo = fields["out_order_no"].Literal()
	if code, ok := fields["payment_status"].AsInt64(); ok {
		n.StatusCode = int(code)
		n.Status = model.PaymentStatusFromCode(int(code))
	}
	n.Amount = fields["amount"].Literal()
	n.Currency = fields["currency"].Literal()
	n.PaidAt = parseNotifyPaidAt(fields["paid_at"])
	return n
}

// parseNotifyPaidAt accepts epoch seconds or an RFC3339 string.
func parseNotifyPaidAt(v signing.Value) *time.Time {
	if sec, ok := v.AsInt64(); ok && sec > 0 {
		t := time.Unix(sec, 0).UTC()
		return &t
	}
	if s, ok := v.AsString(); ok && s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return &t
		}
	}
	return nil
}
