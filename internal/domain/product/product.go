package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Categories enumerates the catalog categories accepted on create/update.
var Categories = []string{"clothes", "electronics", "accessories", "shoes", "home", "mobiles"}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	IsFeatured  bool
	Stock       int
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReserveItem is one line of a stock reservation batch.
type ReserveItem struct {
	ProductID string
	Quantity  int
}

// InsufficientStockError indicates a reservation asked for more units than
// the product currently has. The whole batch it belonged to was rolled back.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: available %d", e.Name, e.Available)
}

// InvalidCategoryError indicates a create/update used a category outside the
// allowed set.
type InvalidCategoryError struct {
	Category string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid category %q", e.Category)
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Category string
	Featured bool
}

// Repository defines persistence operations for the product catalog.
//
// Reserve decrements stock for every item in one transaction. Each decrement
// is conditional on sufficient stock, so there is no window between checking
// availability and committing the write. Any item that cannot be satisfied
// aborts the whole batch: the error is ErrNotFound for an unknown id, or an
// InsufficientStockError carrying the current availability.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Reserve(ctx context.Context, items []ReserveItem) error
}

// ValidCategory reports whether c is one of the allowed catalog categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
