package live

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/errors"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// OrderSource is the part of the backend the loop reads from
type OrderSource interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

// Burst describes one alert: every order that became new in a single update
type Burst struct {
	SessionID string
	OrderIDs  []string
	Buckets   map[models.OrderStatus][]string
	At        time.Time
}

// Alerter raises the operator alert. It is called at most once per update,
// never once per order.
type Alerter interface {
	Alert(ctx context.Context, burst Burst) error
}

// LoopConfig holds the reconciliation loop settings
type LoopConfig struct {
	PollInterval  time.Duration
	SeenMarkDelay time.Duration
	SoundEnabled  bool
}

// Loop keeps the board fresh by polling the backend and raising
// de-duplicated alerts for newly observed orders.
type Loop struct {
	source    OrderSource
	session   *Session
	board     *Board
	alerter   Alerter
	logger    logger.Logger
	interval  time.Duration
	markDelay time.Duration
	afterFunc func(time.Duration, func())
	now       func() time.Time

	sound  atomic.Bool
	loaded atomic.Bool

	// fetchSeq stamps every fetch when it starts. applied is the stamp of the
	// last write to the board; an older result is dropped.
	fetchSeq atomic.Uint64
	applyMu  sync.Mutex
	applied  uint64

	mu         sync.Mutex
	running    bool
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	trigger    chan struct{}
}

// NewLoop creates a stopped loop bound to session and board
func NewLoop(source OrderSource, session *Session, board *Board, alerter Alerter, cfg LoopConfig, logger logger.Logger) *Loop {
	l := &Loop{
		source:    source,
		session:   session,
		board:     board,
		alerter:   alerter,
		logger:    logger,
		interval:  cfg.PollInterval,
		markDelay: cfg.SeenMarkDelay,
		afterFunc: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:       func() time.Time { return time.Now().UTC() },
		trigger:   make(chan struct{}, 1),
	}
	l.sound.Store(cfg.SoundEnabled)

	return l
}

// Session returns the loop's alerting session
func (l *Loop) Session() *Session { return l.session }

// Board returns the board the loop writes to
func (l *Loop) Board() *Board { return l.board }

// Lookup returns the last known state of one order
func (l *Loop) Lookup(orderID string) (models.Order, bool) { return l.board.Order(orderID) }

// SetSoundEnabled toggles the audible alert. Seen marking is unaffected.
func (l *Loop) SetSoundEnabled(enabled bool) {
	l.sound.Store(enabled)
	l.logger.Info("Sound notifications toggled", "enabled", enabled)
}

// SoundEnabled reports whether new orders raise an audible alert
func (l *Loop) SoundEnabled() bool { return l.sound.Load() }

// Loaded reports whether a hard load has succeeded
func (l *Loop) Loaded() bool { return l.loaded.Load() }

// Running reports whether the interval loop is active
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.running
}

// Load performs a hard, foreground reconciliation. Errors are returned to the
// caller and leave the board untouched.
func (l *Loop) Load(ctx context.Context) (Snapshot, error) {
	started := l.fetchSeq.Add(1)

	orders, stats, err := l.fetch(ctx)
	if err != nil {
		l.logger.Error("Failed to load orders", "error", err, "network", errors.IsNetwork(err))
		return Snapshot{}, err
	}

	snap, ok := l.apply(ctx, started, orders, stats)
	if !ok {
		snap = l.board.Snapshot()
	}

	if snap.Loaded {
		l.loaded.Store(true)
	}

	return snap, nil
}

// Refresh re-synchronises the board after an operator action. It races
// freely with interval ticks; a tick that started earlier cannot overwrite it.
func (l *Loop) Refresh(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

// Start begins interval reconciliation. It requires a prior successful Load.
func (l *Loop) Start() error {
	if !l.loaded.Load() {
		return errors.NewAppError(errors.ErrNotLoaded, "initial order load has not completed", http.StatusConflict)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.running = true
	l.generation++
	gen := l.generation

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(ctx, gen)
	}()

	l.logger.Info("Live reconciliation started",
		"pollInterval", l.interval,
		"sessionID", l.session.ID)

	return nil
}

// Stop ends interval reconciliation. A tick still in flight is abandoned and
// its result discarded.
func (l *Loop) Stop() {
	l.mu.Lock()

	if !l.running {
		l.mu.Unlock()
		return
	}

	l.cancel()
	l.running = false
	l.generation++
	l.mu.Unlock()

	l.wg.Wait()
	l.logger.Info("Live reconciliation stopped", "sessionID", l.session.ID)
}

// Trigger asks for an immediate silent tick. It never blocks; triggers that
// arrive while one is queued are coalesced.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

func (l *Loop) run(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx, gen)
		case <-l.trigger:
			l.tick(ctx, gen)
		}
	}
}

// tick is the silent reconciliation: errors are logged, never surfaced.
// Ticks never overlap: run services the ticker and triggers one at a time,
// the ticker drops beats while a tick is busy and triggers coalesce.
func (l *Loop) tick(ctx context.Context, gen uint64) {
	started := l.fetchSeq.Add(1)

	orders, stats, err := l.fetch(ctx)

	if !l.current(gen) {
		l.logger.Debug("Discarding reconciliation result after stop")
		return
	}

	if err != nil {
		l.logger.Warn("Background reconciliation failed",
			"error", err,
			"network", errors.IsNetwork(err))
		return
	}

	l.apply(ctx, started, orders, stats)
}

func (l *Loop) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.running && l.generation == gen
}

// fetch loads orders and stats concurrently; both must succeed. Backend
// errors are returned unwrapped so their text reaches the operator as is.
func (l *Loop) fetch(ctx context.Context) ([]models.Order, *models.DashboardStats, error) {
	var (
		orders []models.Order
		stats  *models.DashboardStats
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		orders, err = l.source.ListOrders(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		stats, err = l.source.GetStats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return orders, stats, nil
}

// apply runs the diff, replaces the board and raises at most one alert. The
// diff and the board write form one critical section. A fetch that started
// before the last write is dropped and apply reports false.
func (l *Loop) apply(ctx context.Context, started uint64, orders []models.Order, stats *models.DashboardStats) (Snapshot, bool) {
	l.applyMu.Lock()
	if started < l.applied {
		l.applyMu.Unlock()
		l.logger.Debug("Dropping reconciliation result older than the board",
			"fetch", started,
			"board", l.applied)
		return Snapshot{}, false
	}
	l.applied = started

	violations := l.validate(orders)
	obs := l.session.Observe(orders)
	snap := l.board.replace(orders, stats, obs, violations, l.now())
	l.applyMu.Unlock()

	if !obs.HasNew() {
		return snap, true
	}

	l.logger.Info("New orders observed",
		"count", len(obs.NewIDs),
		"sessionID", l.session.ID)

	if l.sound.Load() && l.alerter != nil {
		burst := Burst{
			SessionID: l.session.ID,
			OrderIDs:  append([]string(nil), obs.NewIDs...),
			Buckets:   obs.NewByBucket,
			At:        snap.UpdatedAt,
		}

		if err := l.alerter.Alert(ctx, burst); err != nil {
			l.logger.Warn("Failed to raise order alert", "error", err)
		}
	}

	l.scheduleMark(obs.NewIDs)

	return snap, true
}

func (l *Loop) scheduleMark(ids []string) {
	ids = append([]string(nil), ids...)

	if l.markDelay <= 0 {
		l.session.MarkSeen(ids)
		return
	}

	l.afterFunc(l.markDelay, func() {
		l.session.MarkSeen(ids)
	})
}

func (l *Loop) validate(orders []models.Order) []string {
	var violations []string

	for i := range orders {
		for _, err := range orders[i].Validate() {
			l.logger.Warn("Order invariant violated", "violation", err)
			violations = append(violations, err.Error())
		}
	}

	return violations
}

// ApplyOrder patches one order into the board without a fetch. It is the
// fallback when a re-sync after an operator action fails.
func (l *Loop) ApplyOrder(order models.Order) {
	violations := l.validate([]models.Order{order})

	l.applyMu.Lock()
	defer l.applyMu.Unlock()

	l.applied = l.fetchSeq.Add(1)
	l.board.upsert(order, violations)
}
