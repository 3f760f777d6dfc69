package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/kafka"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// Store is the journal as seen by the relay
type Store interface {
	GetPending(ctx context.Context, limit int) ([]*models.OperatorAction, error)
	MarkPublished(ctx context.Context, id string) error
	MarkAttemptFailed(ctx context.Context, id string, errorMessage string) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
}

// Processor relays journaled operator actions to Kafka
type Processor struct {
	store           Store
	publisher       kafka.Publisher
	topic           string
	pollingInterval time.Duration
	batchSize       int
	maxAttempts     int
	logger          logger.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	running         bool
	mu              sync.Mutex
}

// ProcessorConfig holds the configuration for the Processor
type ProcessorConfig struct {
	Topic           string
	PollingInterval time.Duration
	BatchSize       int
	MaxAttempts     int
}

// NewProcessor creates a new Processor
func NewProcessor(store Store, publisher kafka.Publisher, config ProcessorConfig, logger logger.Logger) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		store:           store,
		publisher:       publisher,
		topic:           config.Topic,
		pollingInterval: config.PollingInterval,
		batchSize:       config.BatchSize,
		maxAttempts:     config.MaxAttempts,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start starts the relay
func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		p.processJournal()
	}()

	p.logger.Info("Journal relay started",
		"pollingInterval", p.pollingInterval,
		"batchSize", p.batchSize,
		"topic", p.topic)
}

// Stop stops the relay
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.cancel()
	p.wg.Wait()
	p.running = false

	p.logger.Info("Journal relay stopped")
}

func (p *Processor) processJournal() {
	ticker := time.NewTicker(p.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.processBatch(p.ctx); err != nil {
				p.logger.Error("Failed to relay journal batch", "error", err)
			}
		}
	}
}

// processBatch relays one batch of pending actions
func (p *Processor) processBatch(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, p.pollingInterval)
	defer cancel()

	actions, err := p.store.GetPending(ctx, p.batchSize)

	if err != nil {
		return fmt.Errorf("failed to get pending actions: %w", err)
	}

	if len(actions) == 0 {
		p.logger.Debug("No pending operator actions to relay")
		return nil
	}

	p.logger.Info("Relaying batch of operator actions", "count", len(actions))

	for _, action := range actions {
		if err := p.processAction(ctx, action); err != nil {
			p.logger.Error("Failed to relay operator action",
				"error", err,
				"actionID", action.ID,
				"actionType", action.ActionType)
			continue
		}
	}

	return nil
}

func (p *Processor) processAction(ctx context.Context, action *models.OperatorAction) error {
	payload, err := json.Marshal(action.Event())

	if err != nil {
		msg := fmt.Sprintf("unencodable action: %v", err)
		if markErr := p.store.MarkFailed(ctx, action.ID, msg); markErr != nil {
			p.logger.Error("Failed to mark action as failed", "error", markErr, "actionID", action.ID)
		}
		return fmt.Errorf("%s", msg)
	}

	if err := p.publisher.SendMessage(ctx, p.topic, action.SubjectID, payload); err != nil {
		attempts := action.PublishAttempts + 1

		if attempts >= p.maxAttempts {
			msg := fmt.Sprintf("max attempts reached: %v", err)
			if markErr := p.store.MarkFailed(ctx, action.ID, msg); markErr != nil {
				p.logger.Error("Failed to mark action as failed", "error", markErr, "actionID", action.ID)
			}
			return fmt.Errorf("action failed after %d attempts: %w", attempts, err)
		}

		if markErr := p.store.MarkAttemptFailed(ctx, action.ID, err.Error()); markErr != nil {
			p.logger.Error("Failed to record publish attempt", "error", markErr, "actionID", action.ID)
		}

		p.logger.Warn("Relay failed, will retry on next poll",
			"error", err,
			"actionID", action.ID,
			"attempt", attempts)
		return err
	}

	if err := p.store.MarkPublished(ctx, action.ID); err != nil {
		return fmt.Errorf("failed to mark action as published: %w", err)
	}

	p.logger.Debug("Relayed operator action", "actionID", action.ID, "actionType", action.ActionType)
	return nil
}
