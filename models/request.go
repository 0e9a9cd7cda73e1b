package models

type PlaceOrderRequest struct {
	TokenIn  string  `json:"token_in" validate:"required"`
	TokenOut string  `json:"token_out" validate:"required,nefield=TokenIn"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Type     string  `json:"type" validate:"required,oneof=market limit"`
}
