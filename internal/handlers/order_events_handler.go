package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// Trigger requests an immediate reconciliation tick
type Trigger interface {
	Trigger()
}

// OrderEvent is a change notification published by the backend
type OrderEvent struct {
	EventType  string             `json:"event_type"`
	EventID    string             `json:"event_id"`
	OrderID    models.ID          `json:"order_id"`
	Status     models.OrderStatus `json:"status,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// OrderEventsHandler turns backend order events into reconciliation ticks.
// Events carry no state of their own; the tick fetches the truth.
type OrderEventsHandler struct {
	trigger Trigger
	logger  logger.Logger
}

// NewOrderEventsHandler creates a new OrderEventsHandler
func NewOrderEventsHandler(trigger Trigger, logger logger.Logger) *OrderEventsHandler {
	return &OrderEventsHandler{
		trigger: trigger,
		logger:  logger,
	}
}

// HandleMessage handles incoming order events from Kafka messages
func (h *OrderEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event OrderEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("failed to unmarshal message", "error", err)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	h.logger.Debug("Handling order event",
		"eventType", event.EventType,
		"eventId", event.EventID,
		"orderID", event.OrderID,
		"occurredAt", event.OccurredAt,
	)

	switch event.EventType {
	case "order_created", "order_updated", "order_status_changed", "order_payment_verified":
		h.trigger.Trigger()
		return nil
	default:
		h.logger.Warn("unknown event type", "eventType", event.EventType)
		return nil
	}
}
