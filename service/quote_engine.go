package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vickybesra/Order-Execution-Engine/models"
)

// VenueParams defines the pricing behavior of one simulated liquidity venue.
type VenueParams struct {
	Venue        models.Venue
	SpreadPct    float64 // max deviation from the pair mid rate
	FeeMinPct    float64
	FeeMaxPct    float64
	LiquidityMin float64
	LiquidityMax float64
}

// DefaultVenueParams returns the two simulated venues. Raydium quotes a
// tighter band with lower fees and deeper liquidity; Orca a wider band with
// higher fees and shallower liquidity, so quotes realistically diverge.
func DefaultVenueParams() map[models.Venue]VenueParams {
	return map[models.Venue]VenueParams{
		models.VenueRaydium: {
			Venue:        models.VenueRaydium,
			SpreadPct:    0.005,
			FeeMinPct:    0.0025,
			FeeMaxPct:    0.0030,
			LiquidityMin: 500_000,
			LiquidityMax: 1_500_000,
		},
		models.VenueOrca: {
			Venue:        models.VenueOrca,
			SpreadPct:    0.012,
			FeeMinPct:    0.0030,
			FeeMaxPct:    0.0040,
			LiquidityMin: 100_000,
			LiquidityMax: 600_000,
		},
	}
}

// QuoteEngine produces simulated price quotes. A future real-venue client
// must preserve this contract and its latency characteristics, since the
// routing selector awaits both venues jointly.
type QuoteEngine struct {
	params  map[models.Venue]VenueParams
	latency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewQuoteEngine(params map[models.Venue]VenueParams, latency time.Duration) *QuoteEngine {
	if params == nil {
		params = DefaultVenueParams()
	}
	return &QuoteEngine{
		params:  params,
		latency: latency,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetQuote simulates a network round trip to the venue and returns its quote.
func (e *QuoteEngine) GetQuote(ctx context.Context, venue models.Venue, tokenIn, tokenOut string, amount decimal.Decimal) (*models.Quote, error) {
	p, ok := e.params[venue]
	if !ok {
		return nil, models.Permanent("quote", errUnknownVenue(venue))
	}

	select {
	case <-time.After(e.latency):
	case <-ctx.Done():
		return nil, models.Transient("quote", ctx.Err())
	}

	e.mu.Lock()
	spread := (e.rng.Float64()*2 - 1) * p.SpreadPct
	feePct := p.FeeMinPct + e.rng.Float64()*(p.FeeMaxPct-p.FeeMinPct)
	liquidity := p.LiquidityMin + e.rng.Float64()*(p.LiquidityMax-p.LiquidityMin)
	e.mu.Unlock()

	rate := decimal.NewFromFloat(midRate(tokenIn, tokenOut) * (1 + spread))
	fee := amount.Mul(decimal.NewFromFloat(feePct))
	amountOut := amount.Sub(fee).Mul(rate)
	netRate := amountOut.Div(amount)

	return &models.Quote{
		Venue:     venue,
		Rate:      rate,
		Fee:       fee,
		NetRate:   netRate,
		AmountOut: amountOut,
		Liquidity: decimal.NewFromFloat(liquidity),
	}, nil
}

// midRate is the reference rate the venue bands oscillate around.
func midRate(tokenIn, tokenOut string) float64 {
	switch tokenIn + "/" + tokenOut {
	case "SOL/USDC":
		return 150.0
	case "USDC/SOL":
		return 1.0 / 150.0
	default:
		return 100.0
	}
}

type errUnknownVenue models.Venue

func (e errUnknownVenue) Error() string {
	return "unknown venue: " + string(e)
}
