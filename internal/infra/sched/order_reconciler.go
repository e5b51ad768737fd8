package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	red "github.com/302ai/paywith302-demo/internal/infra/redis"
	"github.com/302ai/paywith302-demo/internal/infra/worker"
	"github.com/302ai/paywith302-demo/internal/usecase"
)

// reconcileLockKey guards the scan so replicas do not double-query the gateway.
const reconcileLockKey = "paywith302:lock:reconcile"

// OrderReconciler periodically scans for stale pending orders and asks the
// gateway for their real status. This covers cases where the webhook was
// lost or the process crashed before applying it.
type OrderReconciler struct {
	orders     usecase.OrderUseCase
	locker     red.Locker // nil disables the leader lock (single replica)
	pool       *worker.Pool
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending order must be to query
	batchSize  int
	log        *zerolog.Logger
}

func NewOrderReconciler(orders usecase.OrderUseCase, locker red.Locker, interval, staleAfter time.Duration, logger *zerolog.Logger) *OrderReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &OrderReconciler{
		orders:     orders,
		locker:     locker,
		pool:       worker.NewPool(4, logger),
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  200,
		log:        logger,
	}
}

func (w *OrderReconciler) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Starting order reconciler")
	w.pool.Start(ctx)
	defer w.pool.Stop()

	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping order reconciler")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *OrderReconciler) tick(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, reconcileLockKey, w.interval)
		if errors.Is(err, domain.ErrLockHeld) {
			w.log.Debug().Msg("order reconciler: another replica holds the lock")
			return
		}
		if err != nil {
			// Redis being down must not stop reconciliation. The status
			// update is conditional, so a duplicate scan is harmless.
			w.log.Warn().Err(err).Msg("order reconciler: lock error, scanning anyway")
		} else {
			defer w.locker.Unlock(ctx, reconcileLockKey, token)
		}
	}

	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.orders.ListStale(ctx, cutoff, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("order reconciler: list stale error")
		return
	}
	if len(stale) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, o := range stale {
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			updated, err := w.orders.SyncStatus(ctx, o.ID)
			if err != nil {
				return fmt.Errorf("sync order %s (%s): %w", o.ID, o.OutOrderNo, err)
			}
			if updated.Status != model.PaymentStatusPending {
				w.log.Info().Str("order_id", o.ID).Str("status", string(updated.Status)).
					Msg("order reconciler: order settled")
			}
			return nil
		}
		if err := w.pool.Submit(task); err != nil {
			wg.Done()
			w.log.Warn().Err(err).Msg("order reconciler: pool saturated, deferring to next tick")
			break
		}
	}
	wg.Wait()
}
