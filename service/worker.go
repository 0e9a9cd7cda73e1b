package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vickybesra/Order-Execution-Engine/models"
)

// Router selects the execution venue for an order.
type Router interface {
	SelectBest(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal) (*models.RoutingDecision, error)
}

// TradeExecutor settles an order on its selected venue.
type TradeExecutor interface {
	Execute(ctx context.Context, order *models.Order) (*models.SettlementReceipt, error)
}

// StateStore is the dual-backed persistence surface the worker drives.
type StateStore interface {
	Get(ctx context.Context, orderID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, update *models.StatusUpdate) error
	Archive(ctx context.Context, order *models.Order) error
}

// Notifier pushes state-update events to live subscribers.
type Notifier interface {
	Publish(orderID string, event models.StatusEvent)
}

type BrokerConfig struct {
	Concurrency   int           // simultaneous orders
	RatePerMinute int           // order attempts admitted per rolling minute
	MaxAttempts   int           // attempts before permanent failure
	BackoffBase   time.Duration // first retry delay, doubled per attempt
	BackoffCap    time.Duration
	BuildDelay    time.Duration // simulated transaction construction time
	QueueSize     int
}

func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{
		Concurrency:   10,
		RatePerMinute: 100,
		MaxAttempts:   3,
		BackoffBase:   2 * time.Second,
		BackoffCap:    8 * time.Second,
		BuildDelay:    300 * time.Millisecond,
		QueueSize:     1024,
	}
}

// Broker queues submitted orders and drives each one through the
// routing -> building -> submitted -> confirmed state machine on a bounded
// worker pool. At most one attempt per order is ever in flight.
type Broker struct {
	cfg      BrokerConfig
	router   Router
	executor TradeExecutor
	store    StateStore
	notifier Notifier
	limiter  *RateLimiter

	jobs     chan string
	mu       sync.Mutex
	inflight map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBroker(cfg BrokerConfig, router Router, executor TradeExecutor, store StateStore, notifier Notifier) *Broker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		cfg:      cfg,
		router:   router,
		executor: executor,
		store:    store,
		notifier: notifier,
		limiter:  NewRateLimiter(cfg.RatePerMinute, float64(cfg.RatePerMinute)/60.0),
		jobs:     make(chan string, cfg.QueueSize),
		inflight: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker pool.
func (b *Broker) Start() {
	for i := 0; i < b.cfg.Concurrency; i++ {
		b.wg.Add(1)
		go b.work()
	}
	log.Info().Int("concurrency", b.cfg.Concurrency).
		Int("rate_per_minute", b.cfg.RatePerMinute).Msg("order broker started")
}

// Stop cancels in-flight processing and waits for the pool to drain.
func (b *Broker) Stop() {
	b.cancel()
	b.wg.Wait()
	log.Info().Msg("order broker stopped")
}

// Enqueue queues an order for processing. A duplicate enqueue while the
// order is still in flight is dropped, preserving at-most-one attempt per
// order. Excess demand queues; it is never rejected.
func (b *Broker) Enqueue(orderID string) {
	b.mu.Lock()
	if _, dup := b.inflight[orderID]; dup {
		b.mu.Unlock()
		log.Warn().Str("order_id", orderID).Msg("order already in flight; enqueue dropped")
		return
	}
	b.inflight[orderID] = struct{}{}
	b.mu.Unlock()

	select {
	case b.jobs <- orderID:
	default:
		// Queue full: hand off without blocking the caller.
		go func() {
			select {
			case b.jobs <- orderID:
			case <-b.ctx.Done():
			}
		}()
	}
}

// InFlight reports whether the order is queued or being processed.
func (b *Broker) InFlight(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.inflight[orderID]
	return ok
}

func (b *Broker) work() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case orderID := <-b.jobs:
			b.handle(orderID)
		}
	}
}

func (b *Broker) handle(orderID string) {
	defer func() {
		b.mu.Lock()
		delete(b.inflight, orderID)
		b.mu.Unlock()
	}()

	order, err := b.store.Get(b.ctx, orderID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("dequeued order has no snapshot; skipping")
		return
	}

	b.process(order)
}

// process drives the order through up to MaxAttempts full passes of the
// pipeline, backing off exponentially between attempts.
func (b *Broker) process(order *models.Order) {
	if order.Type != models.OrderTypeMarket {
		b.fail(order, models.Permanent("validate", fmt.Errorf("order type %q not supported", order.Type)), 1)
		return
	}

	for attempt := 1; ; attempt++ {
		if err := b.limiter.Wait(b.ctx); err != nil {
			log.Warn().Str("order_id", order.ID).Msg("broker shutting down before attempt admission")
			return
		}

		order.Attempts = attempt
		err := b.runAttempt(order)
		if err == nil {
			return
		}

		var perr *models.ProcessingError
		if !errors.As(err, &perr) {
			perr = models.Permanent("process", err)
		}

		if perr.Class == models.ErrClassTransient && attempt < b.cfg.MaxAttempts {
			b.retry(order, perr, attempt)
			select {
			case <-time.After(b.backoff(attempt)):
			case <-b.ctx.Done():
				return
			}
			continue
		}

		b.fail(order, perr, attempt)
		return
	}
}

// runAttempt executes one full pass: route, build, submit, confirm. Every
// in-flight persistence or notification failure is logged and swallowed; only
// step errors and the durable confirm write can fail the attempt.
func (b *Broker) runAttempt(order *models.Order) error {
	ctx := b.ctx

	// Pending -> Routing
	decision, err := b.router.SelectBest(ctx, order.TokenIn, order.TokenOut, order.AmountIn)
	if err != nil {
		return err
	}
	order.Status = models.StatusRouting
	order.Routing = decision
	b.persist(order.ID, models.StatusRouting, &models.StatusUpdate{
		Routing:  decision,
		Attempts: &order.Attempts,
	})
	b.emit(order, decision.Rationale, map[string]interface{}{
		"venue":     decision.Venue,
		"rationale": decision.Rationale,
		"quotes":    decision.Quotes,
	})

	// Routing -> Building
	select {
	case <-time.After(b.cfg.BuildDelay):
	case <-ctx.Done():
		return models.Transient("build", ctx.Err())
	}
	order.Status = models.StatusBuilding
	b.persist(order.ID, models.StatusBuilding, nil)
	b.emit(order, "building transaction", nil)

	// Building -> Submitted
	receipt, err := b.executor.Execute(ctx, order)
	if err != nil {
		return err
	}
	order.Status = models.StatusSubmitted
	order.SettlementRef = receipt.Reference
	order.VenueOrderID = receipt.VenueOrderID
	b.persist(order.ID, models.StatusSubmitted, &models.StatusUpdate{
		SettlementRef: &receipt.Reference,
		VenueOrderID:  &receipt.VenueOrderID,
	})
	b.emit(order, "submitted to "+string(receipt.Venue), map[string]interface{}{
		"settlement_ref": receipt.Reference,
	})

	// Submitted -> Confirmed. The durable write is correctness-critical:
	// its failure fails the attempt and triggers the retry path.
	now := time.Now().UTC()
	order.Status = models.StatusConfirmed
	order.ExecutionPrice = &receipt.Price
	order.ExecutedAmount = &receipt.Amount
	order.CompletedAt = &now

	if err := b.store.Archive(ctx, order); err != nil {
		order.Status = models.StatusSubmitted
		order.ExecutionPrice = nil
		order.ExecutedAmount = nil
		order.CompletedAt = nil
		return models.Transient("archive", err)
	}

	b.persist(order.ID, models.StatusConfirmed, &models.StatusUpdate{
		ExecutionPrice: &receipt.Price,
		ExecutedAmount: &receipt.Amount,
	})
	b.emit(order, "order confirmed", map[string]interface{}{
		"price":          receipt.Price,
		"amount":         receipt.Amount,
		"venue":          receipt.Venue,
		"settlement_ref": receipt.Reference,
	})

	log.Info().Str("order_id", order.ID).Str("venue", string(receipt.Venue)).
		Int("attempts", order.Attempts).Msg("order confirmed")
	return nil
}

// retry records an interim failure in the ephemeral store only and announces
// the upcoming retry.
func (b *Broker) retry(order *models.Order, perr *models.ProcessingError, attempt int) {
	reason := perr.Error()
	log.Warn().Str("order_id", order.ID).Int("attempt", attempt).
		Str("reason", reason).Msg("attempt failed; retrying")

	order.Status = models.StatusFailed
	order.FailureReason = reason
	b.persist(order.ID, models.StatusFailed, &models.StatusUpdate{
		FailureReason: &reason,
		Attempts:      &attempt,
	})
	b.emit(order, fmt.Sprintf("attempt %d/%d failed: %s; retrying", attempt, b.cfg.MaxAttempts, reason),
		map[string]interface{}{
			"attempt":    attempt,
			"will_retry": true,
			"reason":     reason,
		})
}

// fail marks the order permanently failed. This is the only failure path
// that reaches the durable store.
func (b *Broker) fail(order *models.Order, perr *models.ProcessingError, attempt int) {
	reason := perr.Error()
	now := time.Now().UTC()
	order.Status = models.StatusFailed
	order.FailureReason = reason
	order.Attempts = attempt
	if order.FailedAt == nil {
		order.FailedAt = &now
	}

	b.persist(order.ID, models.StatusFailed, &models.StatusUpdate{
		FailureReason: &reason,
		Attempts:      &attempt,
	})
	if err := b.store.Archive(b.ctx, order); err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Msg("failed to archive failed order")
	}
	b.emit(order, fmt.Sprintf("order failed after %d attempt(s): %s", attempt, reason),
		map[string]interface{}{
			"attempt":    attempt,
			"will_retry": false,
			"reason":     reason,
		})

	log.Error().Str("order_id", order.ID).Int("attempts", attempt).
		Str("reason", reason).Msg("order failed permanently")
}

// persist writes the transition to the ephemeral store; failures here are
// logged and swallowed so they never corrupt the order's progress.
func (b *Broker) persist(orderID string, status models.OrderStatus, update *models.StatusUpdate) {
	if err := b.store.UpdateStatus(b.ctx, orderID, status, update); err != nil {
		log.Error().Err(err).Str("order_id", orderID).Str("status", string(status)).
			Msg("ephemeral status write failed; continuing")
	}
}

func (b *Broker) emit(order *models.Order, message string, data map[string]interface{}) {
	b.notifier.Publish(order.ID, models.StatusEvent{
		OrderID:   order.ID,
		Status:    order.Status,
		Timestamp: time.Now().UTC(),
		Message:   message,
		Data:      data,
	})
}

func (b *Broker) backoff(attempt int) time.Duration {
	d := b.cfg.BackoffBase * time.Duration(1<<(attempt-1))
	if b.cfg.BackoffCap > 0 && d > b.cfg.BackoffCap {
		d = b.cfg.BackoffCap
	}
	return d
}
