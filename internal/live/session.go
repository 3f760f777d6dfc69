package live

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
)

// Session is the operator's alerting memory for one dashboard session. It is
// created empty at session start, only grows, and is never persisted.
//
// The seen set is global across buckets: an order marked seen while pending
// does not alert again when it moves to preparing or ready.
type Session struct {
	ID        string
	StartedAt time.Time

	mu      sync.Mutex
	seen    map[string]struct{}
	marking map[string]struct{}
}

// Observation is the result of diffing one fetched order set against the
// session.
type Observation struct {
	// Buckets holds the ids per attention bucket
	Buckets map[models.OrderStatus][]string
	// Attention is true for every non-empty bucket, new or not
	Attention map[models.OrderStatus]bool
	// NewByBucket holds the ids not yet alerted on, per bucket
	NewByBucket map[models.OrderStatus][]string
	// NewIDs is the union of NewByBucket in bucket order
	NewIDs []string
}

// HasNew reports whether the observation warrants an alert
func (o Observation) HasNew() bool {
	return len(o.NewIDs) > 0
}

// NewSession starts an empty session
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		seen:      make(map[string]struct{}),
		marking:   make(map[string]struct{}),
	}
}

// Observe partitions orders into attention buckets and computes which ids are
// new. New ids are held as alerted-but-unmarked until MarkSeen, so a second
// observation before the mark delay elapses does not alert on them again.
func (s *Session) Observe(orders []models.Order) Observation {
	obs := Observation{
		Buckets:     make(map[models.OrderStatus][]string, len(models.AttentionBuckets)),
		Attention:   make(map[models.OrderStatus]bool, len(models.AttentionBuckets)),
		NewByBucket: make(map[models.OrderStatus][]string),
	}

	for _, order := range orders {
		if !order.Status.IsAttention() {
			continue
		}
		obs.Buckets[order.Status] = append(obs.Buckets[order.Status], order.ID.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bucket := range models.AttentionBuckets {
		ids := obs.Buckets[bucket]
		obs.Attention[bucket] = len(ids) > 0

		for _, id := range ids {
			if s.known(id) {
				continue
			}
			obs.NewByBucket[bucket] = append(obs.NewByBucket[bucket], id)
			obs.NewIDs = append(obs.NewIDs, id)
			s.marking[id] = struct{}{}
		}
	}

	return obs
}

// MarkSeen records ids as alerted on
func (s *Session) MarkSeen(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		s.seen[id] = struct{}{}
		delete(s.marking, id)
	}
}

// Seen reports whether id is in the seen set
func (s *Session) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[id]
	return ok
}

// SeenCount returns the size of the seen set
func (s *Session) SeenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seen)
}

// Pulsing returns the ids alerted on but not yet marked seen
func (s *Session) Pulsing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.marking))
	for id := range s.marking {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) known(id string) bool {
	if _, ok := s.seen[id]; ok {
		return true
	}
	_, ok := s.marking[id]
	return ok
}
