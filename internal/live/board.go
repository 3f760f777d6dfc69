package live

import (
	"sync"
	"time"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
)

// Snapshot is the operator's current view of orders and stats
type Snapshot struct {
	Orders      []models.Order              `json:"orders"`
	Stats       *models.DashboardStats      `json:"stats,omitempty"`
	Attention   map[models.OrderStatus]bool `json:"attention"`
	Counts      map[models.OrderStatus]int  `json:"counts"`
	NewOrderIDs []string                    `json:"new_order_ids"`
	Violations  []string                    `json:"invariant_violations,omitempty"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	Version     uint64                      `json:"version"`
	Loaded      bool                        `json:"loaded"`
}

// Board holds the latest snapshot. Every write replaces it whole.
type Board struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewBoard creates an empty, not yet loaded board
func NewBoard() *Board {
	return &Board{}
}

// Snapshot returns a copy of the current snapshot
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.snap.clone()
}

// Order returns the last known state of one order
func (b *Board) Order(id string) (models.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, order := range b.snap.Orders {
		if order.ID.String() == id {
			return order, true
		}
	}
	return models.Order{}, false
}

func (b *Board) replace(orders []models.Order, stats *models.DashboardStats, obs Observation, violations []string, now time.Time) Snapshot {
	counts := make(map[models.OrderStatus]int, len(obs.Buckets))
	for status, ids := range obs.Buckets {
		counts[status] = len(ids)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.snap = Snapshot{
		Orders:      orders,
		Stats:       stats,
		Attention:   obs.Attention,
		Counts:      counts,
		NewOrderIDs: obs.NewIDs,
		Violations:  violations,
		UpdatedAt:   now,
		Version:     b.snap.Version + 1,
		Loaded:      true,
	}

	return b.snap.clone()
}

// upsert patches a single order in place and adds its violations. Used only
// when a re-sync after an operator action fails.
func (b *Board) upsert(order models.Order, violations []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := make([]models.Order, 0, len(b.snap.Orders)+1)
	replaced := false

	for _, existing := range b.snap.Orders {
		if existing.ID == order.ID {
			orders = append(orders, order)
			replaced = true
			continue
		}
		orders = append(orders, existing)
	}

	if !replaced {
		orders = append([]models.Order{order}, orders...)
	}

	b.snap.Orders = orders
	b.snap.Violations = append(append([]string(nil), b.snap.Violations...), violations...)
	b.snap.Version++
}

func (s Snapshot) clone() Snapshot {
	out := s

	out.Orders = append([]models.Order(nil), s.Orders...)
	out.NewOrderIDs = append([]string(nil), s.NewOrderIDs...)
	out.Violations = append([]string(nil), s.Violations...)

	out.Attention = make(map[models.OrderStatus]bool, len(s.Attention))
	for k, v := range s.Attention {
		out.Attention[k] = v
	}

	out.Counts = make(map[models.OrderStatus]int, len(s.Counts))
	for k, v := range s.Counts {
		out.Counts[k] = v
	}

	return out
}
