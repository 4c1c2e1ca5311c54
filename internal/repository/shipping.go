package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evoloop/storefront/internal/domain/shipping"
)

const (
	shippingColumns = `id, user_id, COALESCE(order_id, ''), full_name, email, phone,
		address, city, state, postal_code, country, created_at, updated_at`

	// One live profile per user: the upsert keys on user_id and a new write
	// supersedes the previous profile wholesale.
	upsertShippingSQL = `INSERT INTO shipping_profiles
		(id, user_id, order_id, full_name, email, phone, address, city, state, postal_code, country)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			order_id = EXCLUDED.order_id, full_name = EXCLUDED.full_name,
			email = EXCLUDED.email, phone = EXCLUDED.phone,
			address = EXCLUDED.address, city = EXCLUDED.city,
			state = EXCLUDED.state, postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country, updated_at = now()`

	// Owner scoping lives in the WHERE clause: a mismatched user id updates
	// nothing and reads as not found.
	updateShippingSQL = `UPDATE shipping_profiles SET
			order_id = NULLIF($3, ''), full_name = $4, email = $5, phone = $6,
			address = $7, city = $8, state = $9, postal_code = $10, country = $11,
			updated_at = now()
		WHERE id = $1 AND user_id = $2`

	getShippingByUserSQL  = `SELECT ` + shippingColumns + ` FROM shipping_profiles WHERE user_id = $1`
	getShippingByOrderSQL = `SELECT ` + shippingColumns + ` FROM shipping_profiles WHERE order_id = $1`
	getShippingByIDSQL    = `SELECT ` + shippingColumns + ` FROM shipping_profiles WHERE id = $1`
	listShippingSQL       = `SELECT ` + shippingColumns + ` FROM shipping_profiles ORDER BY created_at DESC`
)

var _ shipping.Repository = (*ShippingRepository)(nil)

// ShippingRepository implements shipping.Repository backed by PostgreSQL.
type ShippingRepository struct {
	pool *pgxpool.Pool
}

// NewShippingRepository returns a ShippingRepository that uses the given pool.
func NewShippingRepository(pool *pgxpool.Pool) *ShippingRepository {
	return &ShippingRepository{pool: pool}
}

// Upsert writes the user's profile, replacing any existing one.
func (r *ShippingRepository) Upsert(ctx context.Context, p *shipping.Profile) error {
	_, err := r.pool.Exec(ctx, upsertShippingSQL,
		p.ID, p.UserID, p.OrderID, p.FullName, p.Email, p.Phone,
		p.Address, p.City, p.State, p.PostalCode, p.Country)
	if err != nil {
		return fmt.Errorf("upserting shipping profile for %q: %w", p.UserID, err)
	}
	return nil
}

// Update edits an existing profile, scoped to its owner.
func (r *ShippingRepository) Update(ctx context.Context, userID, id string, f shipping.Fields) (*shipping.Profile, error) {
	tag, err := r.pool.Exec(ctx, updateShippingSQL,
		id, userID, f.OrderID, f.FullName, f.Email, f.Phone,
		f.Address, f.City, f.State, f.PostalCode, f.Country)
	if err != nil {
		return nil, fmt.Errorf("updating shipping profile %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, shipping.ErrNotFound
	}
	return r.queryOne(ctx, getShippingByIDSQL, id)
}

// GetByUser returns the user's current profile.
func (r *ShippingRepository) GetByUser(ctx context.Context, userID string) (*shipping.Profile, error) {
	return r.queryOne(ctx, getShippingByUserSQL, userID)
}

// GetByOrder returns the profile attached to an order.
func (r *ShippingRepository) GetByOrder(ctx context.Context, orderID string) (*shipping.Profile, error) {
	return r.queryOne(ctx, getShippingByOrderSQL, orderID)
}

// ListAll returns every profile, newest first.
func (r *ShippingRepository) ListAll(ctx context.Context) ([]shipping.Profile, error) {
	rows, err := r.pool.Query(ctx, listShippingSQL)
	if err != nil {
		return nil, fmt.Errorf("listing shipping profiles: %w", err)
	}
	return pgx.CollectRows(rows, scanShipping)
}

func (r *ShippingRepository) queryOne(ctx context.Context, sql string, args ...any) (*shipping.Profile, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("getting shipping profile: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanShipping)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipping.ErrNotFound
		}
		return nil, fmt.Errorf("getting shipping profile: %w", err)
	}
	return &p, nil
}

func scanShipping(row pgx.CollectableRow) (shipping.Profile, error) {
	var p shipping.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.OrderID, &p.FullName, &p.Email, &p.Phone,
		&p.Address, &p.City, &p.State, &p.PostalCode, &p.Country, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
