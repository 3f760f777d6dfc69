package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vakhileshni/whatsApp-sub000/internal/config"
	"github.com/vakhileshni/whatsApp-sub000/internal/live"
	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/internal/service"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// Version is reported by the health endpoint and the CLI
var Version = "0.1.0"

// JournalReader lists the recorded operator actions of one order or UPI id
type JournalReader interface {
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]*models.OperatorAction, error)
}

// Server is the operator HTTP API
type Server struct {
	config       *config.Config
	logger       logger.Logger
	router       *mux.Router
	httpServer   *http.Server
	loop         *live.Loop
	orderService *service.OrderService
	upiVerifier  *service.UPIVerifier
	journal      JournalReader
}

// NewServer creates a new API server around an operator session. journal may
// be nil when the operator journal is disabled.
func NewServer(cfg *config.Config, logger logger.Logger, loop *live.Loop, orderService *service.OrderService, upiVerifier *service.UPIVerifier, journal JournalReader) *Server {
	r := mux.NewRouter()

	server := &Server{
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.Backend.Timeout + 15*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:       logger,
		config:       cfg,
		loop:         loop,
		orderService: orderService,
		upiVerifier:  upiVerifier,
		journal:      journal,
	}

	server.setupRoutes()

	return server
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and stops live reconciliation
func (s *Server) Shutdown(ctx context.Context) error {
	s.loop.Stop()
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for our API
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	// Orders
	api.HandleFunc("/orders", s.getOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/refresh", s.refreshOrdersHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/status", s.updateOrderStatusHandler).Methods(http.MethodPatch)
	api.HandleFunc("/orders/{id}/verify-payment", s.verifyPaymentHandler).Methods(http.MethodPatch)
	api.HandleFunc("/orders/{id}/journal", s.getOrderJournalHandler).Methods(http.MethodGet)

	// Live reconciliation
	api.HandleFunc("/live/start", s.startLiveHandler).Methods(http.MethodPost)
	api.HandleFunc("/live/stop", s.stopLiveHandler).Methods(http.MethodPost)
	api.HandleFunc("/live/sound", s.setSoundHandler).Methods(http.MethodPut)

	// UPI ownership verification
	api.HandleFunc("/upi/verify", s.requestUPIChallengeHandler).Methods(http.MethodPost)
	api.HandleFunc("/upi/check", s.checkUPICodeHandler).Methods(http.MethodPost)
	api.HandleFunc("/upi/confirm", s.confirmUPIHandler).Methods(http.MethodPost)
	api.HandleFunc("/upi/challenge", s.getUPIChallengeHandler).Methods(http.MethodGet)
	api.HandleFunc("/upi/challenge", s.cancelUPIChallengeHandler).Methods(http.MethodDelete)
	api.HandleFunc("/upi/restaurant", s.getRestaurantHandler).Methods(http.MethodGet)
}

// Middleware for logging requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}
