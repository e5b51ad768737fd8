package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/302ai/paywith302-demo/internal/domain"
	"github.com/302ai/paywith302-demo/internal/domain/model"
	red "github.com/302ai/paywith302-demo/internal/infra/redis"
	"github.com/302ai/paywith302-demo/internal/usecase"
)

// Server carries the public HTTP surface: the merchant order API and the
// payment-status webhook endpoint the gateway calls back on.
type Server struct {
	orders     usecase.OrderUseCase
	webhooks   usecase.WebhookUseCase
	limiter    *red.RateLimiter
	notifyRate int
	debug      bool
	log        *zerolog.Logger
}

// NewServer wires the public routes. limiter may be nil, which disables
// webhook rate limiting (tests).
func NewServer(orders usecase.OrderUseCase, webhooks usecase.WebhookUseCase, limiter *red.RateLimiter, notifyRatePerMinute int, debug bool, logger *zerolog.Logger) *Server {
	return &Server{
		orders:     orders,
		webhooks:   webhooks,
		limiter:    limiter,
		notifyRate: notifyRatePerMinute,
		debug:      debug,
		log:        logger,
	}
}

// Router builds the chi handler with the standard guard chain applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(s.log), RequestLog(s.log), Recover(s.log), Timeout(30*time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", s.handleCreateOrder)
		r.Get("/orders/{id}", s.handleGetOrder)
		r.With(RateLimit(s.limiter, "notify", s.notifyRate, s.log)).Post("/notify", s.handleNotify)
	})
	return r
}

type orderCreateRequest struct {
	OutOrderNo string `json:"out_order_no"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Subject    string `json:"subject"`
}

type orderResponse struct {
	ID             string     `json:"id"`
	OutOrderNo     string     `json:"out_order_no"`
	GatewayOrderID string     `json:"gateway_order_id,omitempty"`
	Amount         string     `json:"amount"`
	Currency       string     `json:"currency"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	PayURL         string     `json:"pay_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`

	// Signature is filled only in debug mode.
	Signature string `json:"signature,omitempty"`
}

func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		OutOrderNo:     o.OutOrderNo,
		GatewayOrderID: o.GatewayOrderID,
		Amount:         o.Amount,
		Currency:       o.Currency,
		Subject:        o.Subject,
		Status:         string(o.Status),
		PayURL:         o.PayURL,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		PaidAt:         o.PaidAt,
	}
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, sig, err := s.orders.Create(r.Context(), usecase.CreateOrderInput{
		OutOrderNo: req.OutOrderNo,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Subject:    req.Subject,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrDuplicate):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrGatewayRejected):
			http.Error(w, "gateway rejected the order", http.StatusBadGateway)
		default:
			http.Error(w, "failed to create order", http.StatusInternalServerError)
		}
		return
	}

	resp := toOrderResponse(o)
	if s.debug {
		resp.Signature = sig
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load order", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOrderResponse(o))
}

// handleNotify answers the gateway's payment-status delivery. The body is the
// literal "success" exactly when the message was consumed; any rejection is a
// plain 400 so nothing about the expected signature leaks back to the caller.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "fail", http.StatusBadRequest)
		return
	}

	accepted, _, err := s.webhooks.HandleNotification(r.Context(), body)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	if !accepted {
		http.Error(w, "fail", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("success"))
}
