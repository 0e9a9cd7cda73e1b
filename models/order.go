package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string           `json:"id"`
	TokenIn         string           `json:"token_in"`
	TokenOut        string           `json:"token_out"`
	AmountIn        decimal.Decimal  `json:"amount_in"`
	Type            OrderType        `json:"type"`
	Status          OrderStatus      `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	FailedAt        *time.Time       `json:"failed_at,omitempty"`
	FailureReason   string           `json:"failure_reason,omitempty"`
	Attempts        int              `json:"attempts"`
	VenueOrderID    string           `json:"venue_order_id,omitempty"`
	ExecutionPrice  *decimal.Decimal `json:"execution_price,omitempty"`
	ExecutedAmount  *decimal.Decimal `json:"executed_amount,omitempty"`
	Routing         *RoutingDecision `json:"routing,omitempty"`
	SettlementRef   string           `json:"settlement_ref,omitempty"`
}

// Quote is one venue's pricing for a token pair. Immutable once produced.
type Quote struct {
	Venue     Venue           `json:"venue"`
	Rate      decimal.Decimal `json:"rate"`
	Fee       decimal.Decimal `json:"fee"` // in input-token units
	NetRate   decimal.Decimal `json:"net_rate"`
	AmountOut decimal.Decimal `json:"amount_out"`
	Liquidity decimal.Decimal `json:"liquidity"`
}

// RoutingDecision records the winning quote plus the losing one for audit.
type RoutingDecision struct {
	Venue     Venue     `json:"venue"`
	Best      Quote     `json:"best"`
	Quotes    []Quote   `json:"quotes"`
	Rationale string    `json:"rationale"`
	DecidedAt time.Time `json:"decided_at"`
}

type SettlementReceipt struct {
	Success      bool            `json:"success"`
	Reference    string          `json:"reference"`
	VenueOrderID string          `json:"venue_order_id"`
	Price        decimal.Decimal `json:"price"`
	Amount       decimal.Decimal `json:"amount"`
	Venue        Venue           `json:"venue"`
	SettledAt    time.Time       `json:"settled_at"`
}

// StatusUpdate is an explicit partial update merged field-by-field into the
// stored order snapshot. Nil fields leave the snapshot untouched.
type StatusUpdate struct {
	FailureReason  *string
	Attempts       *int
	VenueOrderID   *string
	ExecutionPrice *decimal.Decimal
	ExecutedAmount *decimal.Decimal
	Routing        *RoutingDecision
	SettlementRef  *string
}
