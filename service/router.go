package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vickybesra/Order-Execution-Engine/models"
)

// Quoter is the venue pricing contract consumed by the routing selector.
type Quoter interface {
	GetQuote(ctx context.Context, venue models.Venue, tokenIn, tokenOut string, amount decimal.Decimal) (*models.Quote, error)
}

// RoutingSelector fetches quotes from all venues concurrently and picks the
// best execution path. Total latency equals the slowest single quote, never
// the sum.
type RoutingSelector struct {
	quoter Quoter
	venues []models.Venue
}

func NewRoutingSelector(quoter Quoter) *RoutingSelector {
	return &RoutingSelector{
		quoter: quoter,
		venues: []models.Venue{models.VenueRaydium, models.VenueOrca},
	}
}

type quoteResult struct {
	quote *models.Quote
	err   error
}

// SelectBest compares venue quotes and returns the routing decision. Both
// quotes are retained for audit; the loser is never discarded.
func (r *RoutingSelector) SelectBest(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal) (*models.RoutingDecision, error) {
	results := make(chan quoteResult, len(r.venues))

	for _, venue := range r.venues {
		go func(v models.Venue) {
			q, err := r.quoter.GetQuote(ctx, v, tokenIn, tokenOut, amount)
			results <- quoteResult{quote: q, err: err}
		}(venue)
	}

	quotes := make([]models.Quote, 0, len(r.venues))
	for range r.venues {
		res := <-results
		if res.err != nil {
			return nil, res.err
		}
		quotes = append(quotes, *res.quote)
	}

	best, rationale := pickBest(quotes)

	return &models.RoutingDecision{
		Venue:     best.Venue,
		Best:      best,
		Quotes:    quotes,
		Rationale: rationale,
		DecidedAt: time.Now().UTC(),
	}, nil
}

// pickBest applies the selection rules in strict order: higher net rate wins;
// on an exact net-rate tie, deeper liquidity wins; otherwise the primary
// venue is chosen deterministically.
func pickBest(quotes []models.Quote) (models.Quote, string) {
	best := quotes[0]
	for _, q := range quotes[1:] {
		switch q.NetRate.Cmp(best.NetRate) {
		case 1:
			best = q
		case 0:
			if q.Liquidity.GreaterThan(best.Liquidity) {
				best = q
			} else if q.Liquidity.Equal(best.Liquidity) && q.Venue == models.PrimaryVenue {
				best = q
			}
		}
	}

	other := quotes[0]
	for _, q := range quotes {
		if q.Venue != best.Venue {
			other = q
			break
		}
	}

	var rationale string
	switch best.NetRate.Cmp(other.NetRate) {
	case 1:
		edge := best.NetRate.Sub(other.NetRate).
			Div(other.NetRate).
			Mul(decimal.NewFromInt(100)).
			Round(4)
		rationale = fmt.Sprintf("%s offers a %s%% better net rate than %s", best.Venue, edge, other.Venue)
	default:
		if best.Liquidity.GreaterThan(other.Liquidity) {
			rationale = fmt.Sprintf("net rates equal; %s selected for deeper liquidity", best.Venue)
		} else {
			rationale = fmt.Sprintf("quotes equivalent; defaulting to primary venue %s", models.PrimaryVenue)
		}
	}

	return best, rationale
}
