package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/evoloop/storefront/internal/domain/product"
)

// Service implements cart reads, validated writes, and clearing.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// Read returns the user's cart enriched against the live catalog. Every
// line's name, price, image, and stock come from the current product record;
// a line whose product no longer exists is kept with its cached name and
// price and stock zero rather than silently dropped.
func (s *Service) Read(ctx context.Context, userID string) ([]EnrichedItem, error) {
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if len(items) == 0 {
		return []EnrichedItem{}, nil
	}

	live, err := s.liveProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedItem, len(items))
	for i, it := range items {
		e := EnrichedItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
		if p, ok := live[it.ProductID]; ok {
			e.Name = p.Name
			e.Price = p.Price
			e.Image = p.Image
			e.Stock = p.Stock
		}
		enriched[i] = e
	}
	return enriched, nil
}

// Write validates the submitted items against live stock and, if every line
// passes, replaces the user's cart wholesale. The first violation rejects the
// entire write: an unknown product surfaces product.ErrNotFound and an
// oversized quantity a StockExceededError with the current availability.
// Name and price are snapshotted from the live product so reads can fall
// back to them later.
func (s *Service) Write(ctx context.Context, userID string, items []Item) ([]EnrichedItem, error) {
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: it.ProductID}
		}
	}

	live, err := s.liveProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	snapshot := make([]Item, len(items))
	for i, it := range items {
		p, ok := live[it.ProductID]
		if !ok {
			return nil, product.ErrNotFound
		}
		if it.Quantity > p.Stock {
			return nil, &StockExceededError{ProductName: p.Name, Available: p.Stock}
		}
		snapshot[i] = Item{
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
		}
	}

	if err := s.carts.Replace(ctx, userID, snapshot); err != nil {
		return nil, errors.Wrap(err, "replace cart")
	}
	return s.Read(ctx, userID)
}

// Clear deletes the user's cart document. Clearing an absent cart is a no-op.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Delete(ctx, userID); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}

// liveProducts batch-fetches the catalog records behind the given lines,
// keyed by product id. Missing products are simply absent from the map.
func (s *Service) liveProducts(ctx context.Context, items []Item) (map[string]product.Product, error) {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	live := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		live[p.ID] = p
	}
	return live, nil
}
