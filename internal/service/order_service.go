package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/errors"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// OrderBackend is the part of the backend that mutates orders
type OrderBackend interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error)
	VerifyOrderPayment(ctx context.Context, orderID, payerName string) (*models.Order, error)
}

// OrderSync gives the service the operator's current view and a way to
// re-synchronise it from the backend.
type OrderSync interface {
	Lookup(orderID string) (models.Order, bool)
	Refresh(ctx context.Context) error
	ApplyOrder(order models.Order)
}

// OrderService handles operator actions on orders: status transitions and
// manual payment confirmation. Nothing is retried; a failure is returned to
// the operator as the backend worded it.
type OrderService struct {
	backend OrderBackend
	sync    OrderSync
	rec     recorder
	logger  logger.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(backend OrderBackend, sync OrderSync, journal Journal, sessionID string, logger logger.Logger) *OrderService {
	return &OrderService{
		backend: backend,
		sync:    sync,
		rec:     recorder{journal: journal, sessionID: sessionID, logger: logger},
		logger:  logger,
	}
}

// TransitionOrder requests one state machine step for an order. The target
// must be an adjacent next status of the order's last known status.
func (s *OrderService) TransitionOrder(ctx context.Context, orderID string, target models.OrderStatus) (*models.Order, error) {
	orderID = strings.TrimSpace(orderID)

	if orderID == "" {
		return nil, errors.NewValidationError("order id is required")
	}

	if !target.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown order status %q", target))
	}

	current, known := s.sync.Lookup(orderID)

	if known {
		if current.IsTerminal() {
			return nil, errors.NewInvalidTransitionError(
				fmt.Sprintf("order %s is already %s", orderID, current.Status))
		}

		if !models.CanTransition(current.Status, target) {
			return nil, errors.NewInvalidTransitionError(
				fmt.Sprintf("order %s cannot move from %s to %s", orderID, current.Status, target))
		}
	}

	actionType := models.ActionOrderStatusChanged
	if target == models.OrderStatusCancelled {
		// The backend notifies the customer and asks for feedback on cancel
		actionType = models.ActionOrderCancelled
	}

	journalData := map[string]interface{}{
		"from": current.Status,
		"to":   target,
	}

	order, err := s.backend.UpdateOrderStatus(ctx, orderID, target)

	if err != nil {
		s.logger.Warn("Order status transition failed",
			"orderID", orderID,
			"target", target,
			"network", errors.IsNetwork(err),
			"error", err)
		s.rec.record(ctx, actionType, orderID, journalData, err)
		return nil, err
	}

	s.logger.Info("Order status updated",
		"orderID", orderID,
		"oldStatus", current.Status,
		"newStatus", order.Status)
	s.rec.record(ctx, actionType, orderID, journalData, nil)

	s.resync(ctx, *order)
	return order, nil
}

// AcceptOrder moves a pending order to preparing
func (s *OrderService) AcceptOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.TransitionOrder(ctx, orderID, models.OrderStatusPreparing)
}

// CancelOrder cancels an order from any non-terminal status
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.TransitionOrder(ctx, orderID, models.OrderStatusCancelled)
}

// VerifyPayment confirms that an online payment from payerName was received.
// The backend is the authority on repeat calls; the operator view hides the
// action once the order is verified.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID, payerName string) (*models.Order, error) {
	orderID = strings.TrimSpace(orderID)
	payerName = strings.TrimSpace(payerName)

	if orderID == "" {
		return nil, errors.NewValidationError("order id is required")
	}

	if payerName == "" {
		return nil, errors.NewValidationError("payer UPI name is required")
	}

	journalData := map[string]interface{}{
		"customer_upi_name": payerName,
	}

	order, err := s.backend.VerifyOrderPayment(ctx, orderID, payerName)

	if err != nil {
		s.logger.Warn("Payment verification failed",
			"orderID", orderID,
			"network", errors.IsNetwork(err),
			"error", err)
		s.rec.record(ctx, models.ActionOrderPaymentVerified, orderID, journalData, err)
		return nil, err
	}

	s.logger.Info("Order payment verified",
		"orderID", orderID,
		"paymentStatus", order.PaymentStatus)
	s.rec.record(ctx, models.ActionOrderPaymentVerified, orderID, journalData, nil)

	s.resync(ctx, *order)
	return order, nil
}

// resync reloads the board after a successful action. If the reload fails
// the returned order is patched in and the next tick corrects the rest.
func (s *OrderService) resync(ctx context.Context, order models.Order) {
	if err := s.sync.Refresh(ctx); err != nil {
		s.logger.Warn("Failed to re-sync orders after action, applying returned order",
			"orderID", order.ID,
			"error", err)
		s.sync.ApplyOrder(order)
	}
}
