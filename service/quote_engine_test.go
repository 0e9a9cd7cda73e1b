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

func TestGetQuoteWithinVenueBand(t *testing.T) {
	engine := NewQuoteEngine(nil, time.Millisecond)
	amount := decimal.NewFromInt(10)

	tests := []struct {
		venue      models.Venue
		rateLow    float64
		rateHigh   float64
		feeLowPct  float64
		feeHighPct float64
	}{
		{models.VenueRaydium, 150.0 * 0.995, 150.0 * 1.005, 0.0025, 0.0030},
		{models.VenueOrca, 150.0 * 0.988, 150.0 * 1.012, 0.0030, 0.0040},
	}

	for _, tt := range tests {
		t.Run(string(tt.venue), func(t *testing.T) {
			for i := 0; i < 20; i++ {
				q, err := engine.GetQuote(context.Background(), tt.venue, "SOL", "USDC", amount)
				require.NoError(t, err)

				rate, _ := q.Rate.Float64()
				assert.GreaterOrEqual(t, rate, tt.rateLow)
				assert.LessOrEqual(t, rate, tt.rateHigh)

				feePct, _ := q.Fee.Div(amount).Float64()
				assert.GreaterOrEqual(t, feePct, tt.feeLowPct)
				assert.LessOrEqual(t, feePct, tt.feeHighPct)

				wantOut := amount.Sub(q.Fee).Mul(q.Rate)
				assert.True(t, q.AmountOut.Equal(wantOut))
				assert.True(t, q.NetRate.Equal(q.AmountOut.Div(amount)))
				assert.True(t, q.Liquidity.IsPositive())
			}
		})
	}
}

func TestGetQuoteUnknownVenue(t *testing.T) {
	engine := NewQuoteEngine(nil, time.Millisecond)

	_, err := engine.GetQuote(context.Background(), models.Venue("phantom"), "SOL", "USDC", decimal.NewFromInt(1))
	require.Error(t, err)

	var perr *models.ProcessingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.ErrClassPermanent, perr.Class)
}

func TestGetQuoteCancelledContext(t *testing.T) {
	engine := NewQuoteEngine(nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.GetQuote(ctx, models.VenueRaydium, "SOL", "USDC", decimal.NewFromInt(1))
	require.Error(t, err)

	var perr *models.ProcessingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.ErrClassTransient, perr.Class)
}
