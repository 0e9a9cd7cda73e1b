package models

import "time"

type PlaceOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type OrderStatusResponse struct {
	Order *Order `json:"order"`
}

type ActiveOrdersResponse struct {
	OrderIDs []string `json:"order_ids"`
	Count    int      `json:"count"`
}

// StatusEvent is one frame of the per-order status stream.
type StatusEvent struct {
	Type      string                 `json:"type,omitempty"`
	OrderID   string                 `json:"order_id"`
	Status    OrderStatus            `json:"status,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
