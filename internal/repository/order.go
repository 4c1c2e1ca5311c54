package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evoloop/storefront/internal/domain/order"
)

const (
	orderColumns = `id, user_id, items, total, stripe_session_id, status, created_at, updated_at`

	insertOrderSQL = `INSERT INTO orders (id, user_id, items, total, stripe_session_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderBySessionSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 AND stripe_session_id = $2`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`

	listSessionIDsSQL = `SELECT stripe_session_id FROM orders`

	markFinalizedSQL = `INSERT INTO order_finalizations (user_id, session_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`

	isFinalizedSQL = `SELECT EXISTS (
		SELECT 1 FROM order_finalizations WHERE user_id = $1 AND session_id = $2)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The item
// snapshot is serialized to a JSONB column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, itemsJSON, o.Total, o.StripeSessionID, o.Status)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns the order with the given id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.queryOne(ctx, getOrderByIDSQL, id)
}

// GetBySession returns the user's order tied to a gateway session id.
func (r *OrderRepository) GetBySession(ctx context.Context, userID, sessionID string) (*order.Order, error) {
	return r.queryOne(ctx, getOrderBySessionSQL, userID, sessionID)
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus sets the order's status and returns the updated row.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return nil, fmt.Errorf("updating status of %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, order.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ListSessionIDs returns every persisted gateway session id.
func (r *OrderRepository) ListSessionIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listSessionIDsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing session ids: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var id string
		err := row.Scan(&id)
		return id, err
	})
}

// MarkFinalized records the finalization marker; it is a no-op for an
// already marked pair.
func (r *OrderRepository) MarkFinalized(ctx context.Context, userID, sessionID string) error {
	if _, err := r.pool.Exec(ctx, markFinalizedSQL, userID, sessionID); err != nil {
		return fmt.Errorf("marking finalized: %w", err)
	}
	return nil
}

// IsFinalized reports whether the pair has a finalization marker.
func (r *OrderRepository) IsFinalized(ctx context.Context, userID, sessionID string) (bool, error) {
	var done bool
	if err := r.pool.QueryRow(ctx, isFinalizedSQL, userID, sessionID).Scan(&done); err != nil {
		return false, fmt.Errorf("checking finalization: %w", err)
	}
	return done, nil
}

func (r *OrderRepository) queryOne(ctx context.Context, sql string, args ...any) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o   order.Order
		raw []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &raw, &o.Total, &o.StripeSessionID,
		&o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(raw, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	return o, nil
}
