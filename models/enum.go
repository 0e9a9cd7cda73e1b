package models

type OrderStatus string
type OrderType string
type Venue string

const (
	StatusPending   OrderStatus = "pending"
	StatusRouting   OrderStatus = "routing"
	StatusBuilding  OrderStatus = "building"
	StatusSubmitted OrderStatus = "submitted"
	StatusConfirmed OrderStatus = "confirmed"
	StatusFailed    OrderStatus = "failed"
	StatusCancelled OrderStatus = "cancelled"

	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"

	VenueRaydium Venue = "raydium"
	VenueOrca    Venue = "orca"
)

// PrimaryVenue wins routing ties when net rate and liquidity are equal.
const PrimaryVenue = VenueRaydium

// IsTerminal reports whether no further transitions may occur from s.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}
