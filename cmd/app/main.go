// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/302ai/paywith302-demo/internal/config"
	payAdapters "github.com/302ai/paywith302-demo/internal/infra/adapters/payment"
	"github.com/302ai/paywith302-demo/internal/infra/api"
	pg "github.com/302ai/paywith302-demo/internal/infra/db/postgres"
	"github.com/302ai/paywith302-demo/internal/infra/logging"
	"github.com/302ai/paywith302-demo/internal/infra/metrics"
	red "github.com/302ai/paywith302-demo/internal/infra/redis"
	"github.com/302ai/paywith302-demo/internal/infra/sched"
	"github.com/302ai/paywith302-demo/internal/infra/web"
	"github.com/302ai/paywith302-demo/internal/signing"
	"github.com/302ai/paywith302-demo/internal/usecase"
)

// Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, signature echoing)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	replayCache := red.NewReplayCache(redisClient)

	// ---- Repositories ----
	orderRepo := pg.NewOrderRepo(pool)
	noteRepo := pg.NewNotificationRepo(pool)
	txManager := pg.NewTxManager(pool)

	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Gateway adapter and signing ----
	gateway, err := payAdapters.NewPay302Gateway(
		cfg.Gateway.AppID, cfg.Gateway.Secret, cfg.Gateway.BaseURL,
		cfg.Gateway.NotifyURL, cfg.Gateway.Timeout(),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("payment gateway adapter failed")
	}
	validator, err := signing.NewValidator(cfg.Gateway.Secret)
	if err != nil {
		logger.Fatal().Err(err).Msg("signature validator failed")
	}

	// ---- Use cases ----
	orderUC := usecase.NewOrderUseCase(orderRepo, gateway, logger)
	webhookUC := usecase.NewWebhookUseCase(
		validator, orderRepo, noteRepo, replayCache, txManager,
		cfg.Gateway.TimestampTolerance(), logger,
	)

	// ---- Public API ----
	debug := cfg.Gateway.Debug || cfg.Runtime.Dev
	if debug {
		logger.Warn().Msg("debug mode: generated signatures are echoed in responses")
	}
	apiServer := api.NewServer(orderUC, webhookUC, rateLimiter, cfg.Server.NotifyRatePerMinute, debug, logger)
	public := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", public.Addr).Msg("public api listening")
		if err := public.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("public api server error")
		}
	}()

	// ---- Admin API (optional) ----
	var admin *http.Server
	if cfg.Admin.Port != 0 {
		auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SecureCookie, "", cfg.Admin.SessionTTL())
		adminServer := web.NewServer(orderUC, webhookUC, auth, cfg.Admin.Password, logger)
		mux := http.NewServeMux()
		adminServer.RegisterRoutes(mux)
		admin = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
			Handler:           api.Chain(mux, api.TraceID(logger), api.RequestLog(logger), api.Recover(logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", admin.Addr).Msg("admin api listening")
			if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("admin api server error")
			}
		}()
	}

	// ---- Order reconciler ----
	locker := red.NewLocker(redisClient)
	reconciler := sched.NewOrderReconciler(orderUC, locker, cfg.Reconciler.Interval(), cfg.Reconciler.StaleAfter(), logger)
	go reconciler.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := public.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("public api shutdown error")
	}
	if admin != nil {
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("admin api shutdown error")
		}
	}
}
