package models

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// transitions is the adjacency table of the order state machine. Terminal
// statuses have no entry.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusDelivered, OrderStatusCancelled},
}

// AttentionBuckets are the statuses that warrant operator attention, in
// display order.
var AttentionBuckets = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsAttention reports whether s is one of the alerting buckets
func (s OrderStatus) IsAttention() bool {
	return s == OrderStatusPending || s == OrderStatusPreparing || s == OrderStatusReady
}

// NextStatuses returns the statuses reachable from s in one step
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether to is an adjacent next state of from
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActionName returns the operator verb for the from→to edge, or "" when the
// edge does not exist.
func ActionName(from, to OrderStatus) string {
	if !CanTransition(from, to) {
		return ""
	}

	switch to {
	case OrderStatusPreparing:
		return "accept"
	case OrderStatusReady:
		return "ready"
	case OrderStatusDelivered:
		return "deliver"
	case OrderStatusCancelled:
		return "cancel"
	}
	return ""
}
