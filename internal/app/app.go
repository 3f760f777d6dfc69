package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vakhileshni/whatsApp-sub000/internal/alerts"
	"github.com/vakhileshni/whatsApp-sub000/internal/auth"
	"github.com/vakhileshni/whatsApp-sub000/internal/clients"
	"github.com/vakhileshni/whatsApp-sub000/internal/config"
	"github.com/vakhileshni/whatsApp-sub000/internal/database"
	"github.com/vakhileshni/whatsApp-sub000/internal/handlers"
	"github.com/vakhileshni/whatsApp-sub000/internal/live"
	"github.com/vakhileshni/whatsApp-sub000/internal/outbox"
	"github.com/vakhileshni/whatsApp-sub000/internal/repository"
	"github.com/vakhileshni/whatsApp-sub000/internal/service"
	"github.com/vakhileshni/whatsApp-sub000/pkg/kafka"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// Options controls what Build wires beyond the core
type Options struct {
	// Tone receives the audible alert. Nil disables the terminal tone.
	Tone io.Writer
	// Background wires the journal relay and the order event consumer
	Background bool
}

// App is one operator session with everything it talks to
type App struct {
	Backend  *clients.BackendClient
	Session  *live.Session
	Board    *live.Board
	Loop     *live.Loop
	Orders   *service.OrderService
	UPI      *service.UPIVerifier
	Journal  service.Journal
	History  *repository.JournalRepository
	Database *database.Database

	producer *kafka.Producer
	relay    *outbox.Processor
	consumer *kafka.Consumer
	logger   logger.Logger
}

// Build wires an App from configuration. The database and Kafka are optional;
// a failure to reach either is fatal only when it is enabled.
func Build(ctx context.Context, cfg *config.Config, logger logger.Logger, opts Options) (*App, error) {
	inspectToken(cfg.Backend.Token, logger)

	a := &App{
		Backend: clients.NewBackendClient(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout, logger),
		Session: live.NewSession(),
		Board:   live.NewBoard(),
		Journal: service.NopJournal(),
		logger:  logger,
	}

	if cfg.DB.Enabled {
		db, err := database.New(cfg, logger)
		if err != nil {
			return nil, err
		}

		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, err
		}

		a.Database = db
		a.History = repository.NewJournalRepository(db, logger)
		a.Journal = a.History
	}

	var alerters alerts.Multi

	if opts.Tone != nil {
		alerters = append(alerters, alerts.NewToneAlerter(opts.Tone, logger))
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		if err != nil {
			a.Close()
			return nil, err
		}

		a.producer = producer
		alerters = append(alerters, alerts.NewKafkaAlerter(producer, cfg.Kafka.AlertsTopic, logger))
	}

	a.Loop = live.NewLoop(a.Backend, a.Session, a.Board, alerters, live.LoopConfig{
		PollInterval:  cfg.Live.PollInterval,
		SeenMarkDelay: cfg.Live.SeenMarkDelay,
		SoundEnabled:  cfg.Live.SoundEnabled,
	}, logger.With("component", "live"))

	a.Orders = service.NewOrderService(a.Backend, a.Loop, a.Journal, a.Session.ID, logger)
	a.UPI = service.NewUPIVerifier(a.Backend, a.Journal, a.Session.ID, cfg.RestaurantName, logger)

	if !opts.Background || !cfg.Kafka.Enabled {
		return a, nil
	}

	if a.History != nil {
		a.relay = outbox.NewProcessor(a.History, a.producer, outbox.ProcessorConfig{
			Topic:           cfg.Kafka.ActionsTopic,
			PollingInterval: 5 * time.Second,
			BatchSize:       10,
			MaxAttempts:     3,
		}, logger.With("component", "relay"))
	}

	consumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.OrdersTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		FromNewest:    true,
	}, logger)

	if err != nil {
		// Order events only speed up ticks; polling still works without them
		logger.Error("Failed to create Kafka consumer", "error", err)
		return a, nil
	}

	consumer.RegisterHandler(cfg.Kafka.OrdersTopic, handlers.NewOrderEventsHandler(a.Loop, logger))
	a.consumer = consumer

	return a, nil
}

// StartBackground starts the journal relay and the order event consumer
func (a *App) StartBackground() {
	if a.relay != nil {
		a.relay.Start()
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.logger.Error("Failed to start Kafka consumer", "error", err)
		}
	}
}

// Close stops the loop and releases every connection
func (a *App) Close() {
	if a.Loop != nil {
		a.Loop.Stop()
	}

	if a.relay != nil {
		a.relay.Stop()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(); err != nil {
			a.logger.Error("Error stopping Kafka consumer", "error", err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	if a.Database != nil {
		if err := a.Database.Close(); err != nil {
			a.logger.Error("Error closing database connection", "error", err)
		}
	}
}

func inspectToken(token string, logger logger.Logger) {
	if token == "" {
		logger.Warn("BACKEND_TOKEN is not set, backend requests will be unauthenticated")
		return
	}

	info, err := auth.Inspect(token)
	if err != nil {
		logger.Debug("Backend token is not a JWT", "error", err)
		return
	}

	logger.Info("Backend token loaded",
		"subject", info.Subject,
		"restaurantID", info.RestaurantID)

	if info.Expired(time.Now()) {
		logger.Warn(fmt.Sprintf("Backend token expired at %s, requests will be rejected",
			info.ExpiresAt.Format(time.RFC3339)))
	}
}
