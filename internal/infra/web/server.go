package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/302ai/paywith302-demo/internal/infra/metrics"
	"github.com/302ai/paywith302-demo/internal/usecase"
)

// Server is the operator-facing admin API. It runs on its own listener,
// separate from the public order/webhook surface.
type Server struct {
	orderUC   usecase.OrderUseCase
	webhookUC usecase.WebhookUseCase
	auth      *AuthManager
	adminKey  string
	log       *zerolog.Logger
}

func NewServer(
	orderUC usecase.OrderUseCase,
	webhookUC usecase.WebhookUseCase,
	auth *AuthManager,
	adminKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		orderUC:   orderUC,
		webhookUC: webhookUC,
		auth:      auth,
		adminKey:  adminKey,
		log:       logger,
	}
}

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/api/v1/login", http.HandlerFunc(s.loginHandler))
	mux.Handle("/api/v1/logout", http.HandlerFunc(s.logoutHandler))

	// A single handler for all /api/v1/orders/ routes
	ordersRouter := s.authMiddleware(s.ordersRouter())
	mux.Handle("/api/v1/orders", ordersRouter)
	mux.Handle("/api/v1/orders/", ordersRouter)

	notificationsHandler := s.authMiddleware(notificationsListHandler(s.webhookUC))
	mux.Handle("/api/v1/notifications", notificationsHandler)
}

// loginHandler exchanges the configured admin key for a short-lived session.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.adminKey == "" || s.auth == nil {
		s.log.Error().Msg("Admin key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Key), []byte(s.adminKey)) != 1 {
		metrics.IncAdminCommand("login", "unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	metrics.IncAdminCommand("login", "ok")

	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to mint admin session")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// authMiddleware admits a minted session token, from the cookie or an
// Authorization: Bearer header.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ordersRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/orders")
		path = strings.TrimSuffix(path, "/")

		if path == "" { // Path is /api/v1/orders
			ordersListHandler(s.orderUC)(w, r)
			return
		}

		// Path is /api/v1/orders/{id} or /api/v1/orders/{id}/sync
		if strings.HasSuffix(path, "/sync") {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			orderSyncHandler(s.orderUC)(w, r)
			return
		}
		orderGetHandler(s.orderUC, s.webhookUC)(w, r)
	})
}
