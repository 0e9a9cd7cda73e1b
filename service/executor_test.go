package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vickybesra/Order-Execution-Engine/models"
)

func routedOrder() *models.Order {
	best := models.Quote{
		Venue:     models.VenueRaydium,
		Rate:      decimal.NewFromFloat(150.2),
		Fee:       decimal.NewFromFloat(0.028),
		NetRate:   decimal.NewFromFloat(149.8),
		AmountOut: decimal.NewFromFloat(1498),
		Liquidity: decimal.NewFromInt(1_000_000),
	}
	return &models.Order{
		ID:       "ex-1",
		TokenIn:  "SOL",
		TokenOut: "USDC",
		AmountIn: decimal.NewFromInt(10),
		Type:     models.OrderTypeMarket,
		Status:   models.StatusBuilding,
		Routing: &models.RoutingDecision{
			Venue:  best.Venue,
			Best:   best,
			Quotes: []models.Quote{best},
		},
	}
}

func TestExecuteProducesReceipt(t *testing.T) {
	sim := NewExecutionSimulator(time.Millisecond, nil)
	order := routedOrder()

	receipt, err := sim.Execute(context.Background(), order)
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, models.VenueRaydium, receipt.Venue)
	assert.NotEmpty(t, receipt.Reference)
	assert.NotEmpty(t, receipt.VenueOrderID)
	assert.False(t, receipt.SettledAt.IsZero())

	// Realized price stays within the ±0.1% slippage envelope of the quote.
	netRate := order.Routing.Best.NetRate
	low := netRate.Mul(decimal.NewFromFloat(0.999))
	high := netRate.Mul(decimal.NewFromFloat(1.001))
	assert.True(t, receipt.Price.GreaterThanOrEqual(low))
	assert.True(t, receipt.Price.LessThanOrEqual(high))
	assert.True(t, receipt.Amount.Equal(order.AmountIn.Mul(receipt.Price)))
}

func TestExecuteWithoutRoutingDecision(t *testing.T) {
	sim := NewExecutionSimulator(time.Millisecond, nil)

	_, err := sim.Execute(context.Background(), &models.Order{ID: "no-route"})
	require.Error(t, err)

	var perr *models.ProcessingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.ErrClassPermanent, perr.Class)
}

func TestExecuteInjectedFailure(t *testing.T) {
	want := models.Transient("execute", errors.New("venue congestion"))
	sim := NewExecutionSimulator(time.Millisecond, func(order *models.Order) error {
		return want
	})

	_, err := sim.Execute(context.Background(), routedOrder())
	assert.ErrorIs(t, err, want)
}

func TestExecuteCancelledContext(t *testing.T) {
	sim := NewExecutionSimulator(time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Execute(ctx, routedOrder())
	require.Error(t, err)

	var perr *models.ProcessingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.ErrClassTransient, perr.Class)
}
