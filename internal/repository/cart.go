package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evoloop/storefront/internal/domain/cart"
)

const (
	getCartSQL = `SELECT items FROM carts WHERE user_id = $1`

	// Whole-document replace: the upsert swaps the full item list in one
	// statement, which is what gives cart writes their atomicity.
	replaceCartSQL = `INSERT INTO carts (user_id, items) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`

	deleteCartSQL = `DELETE FROM carts WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL, with the
// item list stored as a single JSONB document per user.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the user's cart lines; a user without a cart gets an empty
// slice.
func (r *CartRepository) Get(ctx context.Context, userID string) ([]cart.Item, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []cart.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cart for %q: %w", userID, err)
	}

	var items []cart.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling cart items: %w", err)
	}
	return items, nil
}

// Replace upserts the full item list for the user in one statement.
func (r *CartRepository) Replace(ctx context.Context, userID string, items []cart.Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}
	if _, err := r.pool.Exec(ctx, replaceCartSQL, userID, raw); err != nil {
		return fmt.Errorf("replacing cart for %q: %w", userID, err)
	}
	return nil
}

// Delete removes the user's cart row entirely.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, deleteCartSQL, userID); err != nil {
		return fmt.Errorf("deleting cart for %q: %w", userID, err)
	}
	return nil
}
