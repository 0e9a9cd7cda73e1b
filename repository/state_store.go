package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	redisprovider "github.com/vickybesra/Order-Execution-Engine/cache/redis/providers"
	"github.com/vickybesra/Order-Execution-Engine/models"
)

const (
	orderKeyPrefix = "order:"
	activeSetKey   = "orders:active"

	// Live snapshots expire a day after their last write.
	snapshotTTL = 24 * time.Hour
)

// DurableStore is the historical half of the dual-backed persistence.
type DurableStore interface {
	ArchiveOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

// OrderStateStore coordinates the ephemeral (Redis) and durable (Postgres)
// views of an order. Live status lives in Redis with a bounded TTL; terminal
// records are archived durably and never deleted.
type OrderStateStore struct {
	cache   *redisprovider.RedisProvider
	durable DurableStore
}

func NewOrderStateStore(cache *redisprovider.RedisProvider, durable DurableStore) *OrderStateStore {
	return &OrderStateStore{cache: cache, durable: durable}
}

// Put writes a full order snapshot to the ephemeral store and registers the
// order in the active index when it is not yet terminal.
func (s *OrderStateStore) Put(ctx context.Context, order *models.Order) error {
	if err := s.cache.SetJSON(ctx, orderKeyPrefix+order.ID, order, snapshotTTL); err != nil {
		return err
	}
	if !order.Status.IsTerminal() {
		return s.cache.AddToSet(ctx, activeSetKey, order.ID)
	}
	return nil
}

// Get returns the current snapshot from the ephemeral store, or
// ErrOrderNotFound when no snapshot exists.
func (s *OrderStateStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.cache.GetJSON(ctx, orderKeyPrefix+orderID, &order)
	if err != nil {
		if errors.Is(err, redisprovider.ErrKeyNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus reads the current snapshot, merges the partial update,
// rewrites the snapshot, and maintains the active index. A missing snapshot
// is a warning no-op, never an error.
func (s *OrderStateStore) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, update *models.StatusUpdate) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Str("order_id", orderID).Str("status", string(status)).
				Msg("status update for unknown order; skipping")
			return nil
		}
		return err
	}

	order.Status = status
	mergeUpdate(order, update)

	now := time.Now().UTC()
	if status == models.StatusConfirmed && order.CompletedAt == nil {
		order.CompletedAt = &now
	}
	if status == models.StatusFailed && order.FailedAt == nil {
		order.FailedAt = &now
	}

	if err := s.cache.SetJSON(ctx, orderKeyPrefix+orderID, order, snapshotTTL); err != nil {
		return err
	}
	if status.IsTerminal() {
		return s.cache.RemoveFromSet(ctx, activeSetKey, orderID)
	}
	return nil
}

// Archive upserts the order into the durable store.
func (s *OrderStateStore) Archive(ctx context.Context, order *models.Order) error {
	return s.durable.ArchiveOrder(ctx, order)
}

// GetArchived reads the durable record, used as a fallback once the
// ephemeral snapshot has expired.
func (s *OrderStateStore) GetArchived(ctx context.Context, orderID string) (*models.Order, error) {
	return s.durable.GetOrderByID(ctx, orderID)
}

// ListActive returns the ids of all non-terminal orders.
func (s *OrderStateStore) ListActive(ctx context.Context) ([]string, error) {
	return s.cache.SetMembers(ctx, activeSetKey)
}

func mergeUpdate(order *models.Order, update *models.StatusUpdate) {
	if update == nil {
		return
	}
	if update.FailureReason != nil {
		order.FailureReason = *update.FailureReason
	}
	if update.Attempts != nil {
		order.Attempts = *update.Attempts
	}
	if update.VenueOrderID != nil {
		order.VenueOrderID = *update.VenueOrderID
	}
	if update.ExecutionPrice != nil {
		order.ExecutionPrice = update.ExecutionPrice
	}
	if update.ExecutedAmount != nil {
		order.ExecutedAmount = update.ExecutedAmount
	}
	if update.Routing != nil {
		order.Routing = update.Routing
	}
	if update.SettlementRef != nil {
		order.SettlementRef = *update.SettlementRef
	}
}
