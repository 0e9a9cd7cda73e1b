package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vickybesra/Order-Execution-Engine/db/postgres/providers"
	"github.com/vickybesra/Order-Execution-Engine/models"
)

// ErrOrderNotFound is returned when no row exists for the requested order id.
var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	DBHelper *providers.DBHelper
}

func NewOrderRepository(db *providers.DBHelper) *OrderRepository {
	return &OrderRepository{DBHelper: db}
}

// ArchiveOrder upserts the order into the durable store keyed by order id.
// Re-archiving overwrites mutable fields but never order_id or created_at.
func (r *OrderRepository) ArchiveOrder(ctx context.Context, order *models.Order) error {
	var routingJSON []byte
	if order.Routing != nil {
		var err error
		routingJSON, err = json.Marshal(order.Routing)
		if err != nil {
			return fmt.Errorf("failed to marshal routing decision: %w", err)
		}
	}

	query := `
		INSERT INTO orders (
			order_id, token_in, token_out, amount_in, order_type, status,
			attempts, venue_order_id, execution_price, executed_amount,
			settlement_ref, failure_reason, routing_decision,
			created_at, completed_at, failed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (order_id) DO UPDATE SET
			status           = EXCLUDED.status,
			attempts         = EXCLUDED.attempts,
			venue_order_id   = EXCLUDED.venue_order_id,
			execution_price  = EXCLUDED.execution_price,
			executed_amount  = EXCLUDED.executed_amount,
			settlement_ref   = EXCLUDED.settlement_ref,
			failure_reason   = EXCLUDED.failure_reason,
			routing_decision = EXCLUDED.routing_decision,
			completed_at     = EXCLUDED.completed_at,
			failed_at        = EXCLUDED.failed_at`

	_, err := r.DBHelper.PostgresClient.ExecContext(ctx, query,
		order.ID, order.TokenIn, order.TokenOut, order.AmountIn.String(),
		string(order.Type), string(order.Status), order.Attempts,
		nullString(order.VenueOrderID), nullDecimal(order.ExecutionPrice),
		nullDecimal(order.ExecutedAmount), nullString(order.SettlementRef),
		nullString(order.FailureReason), nullBytes(routingJSON),
		order.CreatedAt, order.CompletedAt, order.FailedAt,
	)
	return err
}

// GetOrderByID fetches one archived order by id.
func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	query := `
		SELECT order_id, token_in, token_out, amount_in, order_type, status,
		       attempts, venue_order_id, execution_price, executed_amount,
		       settlement_ref, failure_reason, routing_decision,
		       created_at, completed_at, failed_at
		FROM orders WHERE order_id = $1`

	row := r.DBHelper.PostgresClient.QueryRowContext(ctx, query, id)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return order, nil
}

// ListOrders returns archived orders, newest first.
func (r *OrderRepository) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT order_id, token_in, token_out, amount_in, order_type, status,
		       attempts, venue_order_id, execution_price, executed_amount,
		       settlement_ref, failure_reason, routing_decision,
		       created_at, completed_at, failed_at
		FROM orders ORDER BY created_at DESC LIMIT $1`

	rows, err := r.DBHelper.PostgresClient.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func scanOrder(scan func(dest ...interface{}) error) (*models.Order, error) {
	var (
		o              models.Order
		amountIn       string
		orderType      string
		status         string
		venueOrderID   sql.NullString
		execPrice      sql.NullString
		execAmount     sql.NullString
		settlementRef  sql.NullString
		failureReason  sql.NullString
		routingJSON    []byte
		completedAt    sql.NullTime
		failedAt       sql.NullTime
	)

	err := scan(&o.ID, &o.TokenIn, &o.TokenOut, &amountIn, &orderType, &status,
		&o.Attempts, &venueOrderID, &execPrice, &execAmount,
		&settlementRef, &failureReason, &routingJSON,
		&o.CreatedAt, &completedAt, &failedAt)
	if err != nil {
		return nil, err
	}

	o.AmountIn, err = decimal.NewFromString(amountIn)
	if err != nil {
		return nil, fmt.Errorf("invalid amount_in for order %s: %w", o.ID, err)
	}
	o.Type = models.OrderType(orderType)
	o.Status = models.OrderStatus(status)
	o.VenueOrderID = venueOrderID.String
	o.SettlementRef = settlementRef.String
	o.FailureReason = failureReason.String

	if execPrice.Valid {
		d, err := decimal.NewFromString(execPrice.String)
		if err != nil {
			return nil, fmt.Errorf("invalid execution_price for order %s: %w", o.ID, err)
		}
		o.ExecutionPrice = &d
	}
	if execAmount.Valid {
		d, err := decimal.NewFromString(execAmount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid executed_amount for order %s: %w", o.ID, err)
		}
		o.ExecutedAmount = &d
	}
	if len(routingJSON) > 0 {
		var routing models.RoutingDecision
		if err := json.Unmarshal(routingJSON, &routing); err != nil {
			return nil, fmt.Errorf("invalid routing_decision for order %s: %w", o.ID, err)
		}
		o.Routing = &routing
	}
	if completedAt.Valid {
		t := completedAt.Time
		o.CompletedAt = &t
	}
	if failedAt.Valid {
		t := failedAt.Time
		o.FailedAt = &t
	}
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
