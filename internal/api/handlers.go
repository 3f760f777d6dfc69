package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/vakhileshni/whatsApp-sub000/internal/live"
	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/errors"
)

type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Health represents the health check response
type Health struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Timestamp    string `json:"timestamp"`
	SessionID    string `json:"session_id"`
	Loaded       bool   `json:"loaded"`
	Live         bool   `json:"live"`
	SoundEnabled bool   `json:"sound_enabled"`
}

// Journal listing bounds for GET /orders/{id}/journal
const (
	defaultJournalLimit = 50
	maxJournalLimit     = 200
)

// OrderAction is one status step the operator may take, named by its verb
type OrderAction struct {
	Action string             `json:"action"`
	Status models.OrderStatus `json:"status"`
}

// OrderView is an order plus the actions the operator may take on it
type OrderView struct {
	models.Order
	NextStatuses     []models.OrderStatus `json:"next_statuses"`
	Actions          []OrderAction        `json:"actions"`
	CanVerifyPayment bool                 `json:"can_verify_payment"`
	IsNew            bool                 `json:"is_new"`
}

// BoardView is the board snapshot as rendered to the operator
type BoardView struct {
	Orders       []OrderView                 `json:"orders"`
	Stats        *models.DashboardStats      `json:"stats,omitempty"`
	Attention    map[models.OrderStatus]bool `json:"attention"`
	Counts       map[models.OrderStatus]int  `json:"counts"`
	NewOrderIDs  []string                    `json:"new_order_ids"`
	Violations   []string                    `json:"invariant_violations,omitempty"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	Version      uint64                      `json:"version"`
	Loaded       bool                        `json:"loaded"`
	Live         bool                        `json:"live"`
	SoundEnabled bool                        `json:"sound_enabled"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type verifyPaymentRequest struct {
	CustomerUPIName string `json:"customer_upi_name"`
}

type soundRequest struct {
	Enabled *bool `json:"enabled"`
}

type upiChallengeRequest struct {
	UPIID    string `json:"upi_id"`
	Password string `json:"password"`
}

type upiCodeRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password,omitempty"`
}

// healthCheckHandler handles the health check endpoint
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Status:       "ok",
		Version:      Version,
		Timestamp:    time.Now().Format(time.RFC3339),
		SessionID:    s.loop.Session().ID,
		Loaded:       s.loop.Loaded(),
		Live:         s.loop.Running(),
		SoundEnabled: s.loop.SoundEnabled(),
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    health,
	})
}

// getOrdersHandler returns the current board without fetching
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.boardView(s.loop.Board().Snapshot()),
	})
}

// refreshOrdersHandler performs a hard load; a failure is shown to the operator
func (s *Server) refreshOrdersHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loop.Load(r.Context())

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.boardView(snap),
	})
}

// updateOrderStatusHandler moves an order one step through its lifecycle
func (s *Server) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}

	order, err := s.orderService.TransitionOrder(r.Context(), id, req.Status)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.orderView(*order, nil),
	})
}

// verifyPaymentHandler confirms an online payment by payer name
func (s *Server) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req verifyPaymentRequest
	if !s.decode(w, r, &req) {
		return
	}

	order, err := s.orderService.VerifyPayment(r.Context(), id, req.CustomerUPIName)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.orderView(*order, nil),
	})
}

// getOrderJournalHandler lists the recorded operator actions on an order,
// newest first
func (s *Server) getOrderJournalHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.respondWithError(w, http.StatusServiceUnavailable, "Operator journal is not enabled")
		return
	}

	id := mux.Vars(r)["id"]

	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJournalLimit {
			s.respondWithAppError(w, errors.NewValidationError(
				fmt.Sprintf("limit must be between 1 and %d", maxJournalLimit)))
			return
		}
		limit = n
	}

	actions, err := s.journal.ListBySubject(r.Context(), id, limit)

	if err != nil {
		s.logger.Error("Failed to read operator journal", "error", err, "orderID", id)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to read operator journal")
		return
	}

	events := make([]models.ActionEvent, 0, len(actions))
	for _, action := range actions {
		events = append(events, action.Event())
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    events,
	})
}

// startLiveHandler enables interval reconciliation
func (s *Server) startLiveHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.loop.Start(); err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]bool{"live": true},
	})
}

// stopLiveHandler disables interval reconciliation
func (s *Server) stopLiveHandler(w http.ResponseWriter, r *http.Request) {
	s.loop.Stop()

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]bool{"live": false},
	})
}

// setSoundHandler toggles the audible alert
func (s *Server) setSoundHandler(w http.ResponseWriter, r *http.Request) {
	var req soundRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Enabled == nil {
		s.respondWithAppError(w, errors.NewValidationError("enabled is required"))
		return
	}

	s.loop.SetSoundEnabled(*req.Enabled)

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]bool{"sound_enabled": *req.Enabled},
	})
}

// requestUPIChallengeHandler starts UPI ownership verification
func (s *Server) requestUPIChallengeHandler(w http.ResponseWriter, r *http.Request) {
	var req upiChallengeRequest
	if !s.decode(w, r, &req) {
		return
	}

	challenge, err := s.upiVerifier.RequestChallenge(r.Context(), req.UPIID, req.Password)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    challenge,
	})
}

// checkUPICodeHandler compares an entered code without calling the backend
func (s *Server) checkUPICodeHandler(w http.ResponseWriter, r *http.Request) {
	var req upiCodeRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.upiVerifier.CheckCode(req.Code); err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]bool{"matches": true},
	})
}

// confirmUPIHandler submits the code to the backend
func (s *Server) confirmUPIHandler(w http.ResponseWriter, r *http.Request) {
	var req upiCodeRequest
	if !s.decode(w, r, &req) {
		return
	}

	info, err := s.upiVerifier.Confirm(r.Context(), req.Code, req.NewPassword)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    info,
	})
}

// getUPIChallengeHandler returns the active challenge
func (s *Server) getUPIChallengeHandler(w http.ResponseWriter, r *http.Request) {
	challenge, ok := s.upiVerifier.Current()

	if !ok {
		s.respondWithAppError(w, errors.NewNoChallengeError("no UPI verification in progress"))
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    challenge,
	})
}

// getRestaurantHandler returns the restaurant as of the last verified UPI id
func (s *Server) getRestaurantHandler(w http.ResponseWriter, r *http.Request) {
	info, ok := s.upiVerifier.Restaurant()

	if !ok {
		s.respondWithAppError(w, errors.NewNotFoundError("no UPI id verified in this session"))
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    info,
	})
}

// cancelUPIChallengeHandler abandons the active challenge
func (s *Server) cancelUPIChallengeHandler(w http.ResponseWriter, r *http.Request) {
	cancelled := s.upiVerifier.Cancel()

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]bool{"cancelled": cancelled},
	})
}

func (s *Server) boardView(snap live.Snapshot) BoardView {
	pulsing := make(map[string]bool)
	for _, id := range s.loop.Session().Pulsing() {
		pulsing[id] = true
	}

	orders := make([]OrderView, 0, len(snap.Orders))
	for _, order := range snap.Orders {
		orders = append(orders, s.orderView(order, pulsing))
	}

	return BoardView{
		Orders:       orders,
		Stats:        snap.Stats,
		Attention:    snap.Attention,
		Counts:       snap.Counts,
		NewOrderIDs:  snap.NewOrderIDs,
		Violations:   snap.Violations,
		UpdatedAt:    snap.UpdatedAt,
		Version:      snap.Version,
		Loaded:       snap.Loaded,
		Live:         s.loop.Running(),
		SoundEnabled: s.loop.SoundEnabled(),
	}
}

func (s *Server) orderView(order models.Order, pulsing map[string]bool) OrderView {
	next := order.Status.NextStatuses()
	if next == nil {
		next = []models.OrderStatus{}
	}

	actions := make([]OrderAction, 0, len(next))
	for _, status := range next {
		actions = append(actions, OrderAction{
			Action: models.ActionName(order.Status, status),
			Status: status,
		})
	}

	return OrderView{
		Order:            order,
		NextStatuses:     next,
		Actions:          actions,
		CanVerifyPayment: order.CanVerifyPayment(),
		IsNew:            pulsing[order.ID.String()],
	}
}

// decode reads a JSON body; it writes the error response itself
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	return true
}

// respondWithAppError maps err to its status and passes its message through
func (s *Server) respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError

	message := err.Error()
	if stderrors.As(err, &appErr) {
		message = appErr.Error()
	}

	status := errors.StatusCode(err)

	switch {
	case errors.IsRejected(err):
		s.logger.Info("Backend rejected operator request", "status", status, "error", message)
	case errors.IsNetwork(err):
		s.logger.Warn("Backend unreachable", "status", status, "error", message)
	}

	s.respondWithError(w, status, message)
}

// respondWithError sends a JSON response with an error message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
