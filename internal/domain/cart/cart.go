package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is a persisted cart line. Name and price are a cache of the catalog
// values at write time; reads resolve them live and only fall back to the
// cached copy when the product has since disappeared.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// EnrichedItem is a cart line joined with live catalog data.
type EnrichedItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Image     string
	Quantity  int
	Stock     int
}

// StockExceededError indicates a cart write asked for more units of a product
// than the catalog currently has. The write was rejected in full.
type StockExceededError struct {
	ProductName string
	Available   int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("only %d items available in stock for %s", e.Available, e.ProductName)
}

// InvalidQuantityError indicates a cart line with a quantity below one.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s", e.ProductID)
}

// Repository defines persistence operations for carts. There is at most one
// cart per user; Replace upserts the full item list in a single statement and
// Delete removes the cart outright. Get returns an empty slice, not an error,
// when the user has no cart.
type Repository interface {
	Get(ctx context.Context, userID string) ([]Item, error)
	Replace(ctx context.Context, userID string, items []Item) error
	Delete(ctx context.Context, userID string) error
}
