package alerts

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vakhileshni/whatsApp-sub000/internal/live"
	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/kafka"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

const bell = "\a"

// ToneAlerter plays a short two-pulse tone on a terminal
type ToneAlerter struct {
	out    io.Writer
	gap    time.Duration
	logger logger.Logger
	mu     sync.Mutex
}

// NewToneAlerter creates an alerter that rings the terminal bell twice
func NewToneAlerter(out io.Writer, logger logger.Logger) *ToneAlerter {
	return &ToneAlerter{
		out:    out,
		gap:    150 * time.Millisecond,
		logger: logger,
	}
}

// Alert rings twice, gap apart. Concurrent bursts do not interleave pulses.
func (a *ToneAlerter) Alert(ctx context.Context, burst live.Burst) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := io.WriteString(a.out, bell); err != nil {
		return fmt.Errorf("failed to write alert tone: %w", err)
	}

	select {
	case <-time.After(a.gap):
	case <-ctx.Done():
		return ctx.Err()
	}

	if _, err := io.WriteString(a.out, bell); err != nil {
		return fmt.Errorf("failed to write alert tone: %w", err)
	}

	a.logger.Debug("Alert tone played", "orders", len(burst.OrderIDs))
	return nil
}

// KafkaAlerter publishes each burst so other operator devices can alert too
type KafkaAlerter struct {
	publisher kafka.Publisher
	topic     string
	logger    logger.Logger
}

// NewKafkaAlerter creates a KafkaAlerter
func NewKafkaAlerter(publisher kafka.Publisher, topic string, logger logger.Logger) *KafkaAlerter {
	return &KafkaAlerter{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// Alert publishes one message for the whole burst, keyed by session
func (a *KafkaAlerter) Alert(ctx context.Context, burst live.Burst) error {
	buckets := make(map[string][]string, len(burst.Buckets))
	for status, ids := range burst.Buckets {
		buckets[string(status)] = ids
	}

	event := models.AlertEvent{
		EventID:    models.GenerateID("alr"),
		SessionID:  burst.SessionID,
		OrderIDs:   burst.OrderIDs,
		Buckets:    buckets,
		OccurredAt: burst.At,
	}

	if err := kafka.SendJSON(ctx, a.publisher, a.topic, burst.SessionID, event); err != nil {
		return err
	}

	a.logger.Info("Alert published", "topic", a.topic, "eventID", event.EventID, "orders", len(burst.OrderIDs))
	return nil
}

// Multi fans one burst out to several alerters. Every alerter is tried; the
// first error is returned.
type Multi []live.Alerter

// Alert raises the burst on every alerter
func (m Multi) Alert(ctx context.Context, burst live.Burst) error {
	var first error

	for _, a := range m {
		if err := a.Alert(ctx, burst); err != nil && first == nil {
			first = err
		}
	}

	return first
}
