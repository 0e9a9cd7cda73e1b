package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vickybesra/Order-Execution-Engine/models"
	"github.com/vickybesra/Order-Execution-Engine/repository"
)

// ErrOrderNotFound is surfaced to the HTTP layer when neither store has the
// requested order.
var ErrOrderNotFound = errors.New("order not found")

// Queue admits orders into the processing pipeline.
type Queue interface {
	Enqueue(orderID string)
}

// LiveStore is the state-store surface the submission path needs.
type LiveStore interface {
	Put(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, orderID string) (*models.Order, error)
	GetArchived(ctx context.Context, orderID string) (*models.Order, error)
	ListActive(ctx context.Context) ([]string, error)
}

// OrderService owns order intake: it creates the order record, persists the
// initial snapshot, and hands the order to the broker.
type OrderService struct {
	Store LiveStore
	Queue Queue
}

func NewOrderService(store LiveStore, queue Queue) *OrderService {
	return &OrderService{Store: store, Queue: queue}
}

// PlaceOrder accepts a validated submission and enqueues it for processing.
// The response is an acceptance, not an execution result.
func (s *OrderService) PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest) (*models.PlaceOrderResponse, error) {
	order := &models.Order{
		ID:        uuid.NewString(),
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		AmountIn:  decimal.NewFromFloat(req.Amount),
		Type:      models.OrderType(req.Type),
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.Put(ctx, order); err != nil {
		return nil, err
	}
	s.Queue.Enqueue(order.ID)

	log.Info().Str("order_id", order.ID).Str("pair", req.TokenIn+"/"+req.TokenOut).
		Float64("amount", req.Amount).Msg("order accepted")

	return &models.PlaceOrderResponse{
		OrderID: order.ID,
		Status:  string(models.StatusPending),
		Message: "Order accepted for processing",
	}, nil
}

// GetOrderStatus reads the live snapshot, falling back to the durable
// archive once the ephemeral copy has expired.
func (s *OrderService) GetOrderStatus(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.Store.Get(ctx, orderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repository.ErrOrderNotFound) {
		return nil, err
	}

	order, err = s.Store.GetArchived(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListActiveOrders returns the ids of all non-terminal orders.
func (s *OrderService) ListActiveOrders(ctx context.Context) ([]string, error) {
	return s.Store.ListActive(ctx)
}
