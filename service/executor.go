package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vickybesra/Order-Execution-Engine/models"
)

// FailFunc lets callers inject execution failures. A nil return means the
// execution proceeds normally. Production wiring passes nil.
type FailFunc func(order *models.Order) error

// ExecutionSimulator simulates settlement of a trade on the selected venue.
type ExecutionSimulator struct {
	delay    time.Duration
	failFunc FailFunc

	mu  sync.Mutex
	rng *rand.Rand
}

func NewExecutionSimulator(delay time.Duration, failFunc FailFunc) *ExecutionSimulator {
	return &ExecutionSimulator{
		delay:    delay,
		failFunc: failFunc,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Execute settles the order on the venue chosen by the routing decision and
// returns the settlement receipt. Realized price jitters within ±0.1% of the
// quoted net rate to simulate slippage.
func (e *ExecutionSimulator) Execute(ctx context.Context, order *models.Order) (*models.SettlementReceipt, error) {
	if order.Routing == nil {
		return nil, models.Permanent("execute", errors.New("order has no routing decision"))
	}

	select {
	case <-time.After(e.delay):
	case <-ctx.Done():
		return nil, models.Transient("execute", ctx.Err())
	}

	if e.failFunc != nil {
		if err := e.failFunc(order); err != nil {
			return nil, err
		}
	}

	quote := order.Routing.Best

	e.mu.Lock()
	slippage := (e.rng.Float64()*2 - 1) * 0.001
	e.mu.Unlock()

	price := quote.NetRate.Mul(decimal.NewFromFloat(1 + slippage))

	return &models.SettlementReceipt{
		Success:      true,
		Reference:    "sim-" + uuid.NewString(),
		VenueOrderID: string(quote.Venue) + "-" + uuid.NewString()[:8],
		Price:        price,
		Amount:       order.AmountIn.Mul(price),
		Venue:        quote.Venue,
		SettledAt:    time.Now().UTC(),
	}, nil
}
