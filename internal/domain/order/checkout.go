package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/evoloop/storefront/internal/domain/cart"
	"github.com/evoloop/storefront/internal/payment"
)

// CheckoutSession is the result of a successful checkout initiation.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// CheckoutService turns a user's cart into a hosted payment session and a
// pending order.
//
// The order row is written only after the gateway confirms a session, so a
// gateway failure leaves nothing behind. The item snapshot and total are
// taken from live catalog data at this moment and frozen into the order;
// later catalog edits do not affect it.
type CheckoutService struct {
	carts    *cart.Service
	orders   Repository
	gateway  payment.Gateway
	sessions *SessionRegistry
}

// NewCheckoutService creates a CheckoutService with the required
// dependencies.
func NewCheckoutService(
	carts *cart.Service,
	orders Repository,
	gateway payment.Gateway,
	sessions *SessionRegistry,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		gateway:  gateway,
		sessions: sessions,
	}
}

// CreateSession loads the user's enriched cart, re-validates every quantity
// against live stock (the cart may have gone stale between edit and checkout
// click), opens a gateway session, and persists a pending order carrying the
// session id, the frozen item snapshot, and a server-computed total. It
// returns the gateway redirect URL.
func (s *CheckoutService) CreateSession(ctx context.Context, userID string) (*CheckoutSession, error) {
	enriched, err := s.carts.Read(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}
	if len(enriched) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]payment.LineItem, len(enriched))
	snapshot := make([]Item, len(enriched))
	total := decimal.Zero
	for i, it := range enriched {
		if it.Quantity > it.Stock {
			return nil, &cart.StockExceededError{ProductName: it.Name, Available: it.Stock}
		}
		lines[i] = payment.LineItem{
			Name:      it.Name,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
		}
		snapshot[i] = Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	orderID := uuid.New().String()
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.SessionParams{
		Reference: orderID,
		LineItems: lines,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}

	o := &Order{
		ID:              orderID,
		UserID:          userID,
		Items:           snapshot,
		Total:           total.Round(2),
		StripeSessionID: session.ID,
		Status:          StatusPending,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	s.sessions.Add(session.ID)

	zctx.From(ctx).Info("Checkout session created",
		zap.String("order_id", o.ID),
		zap.String("session_id", session.ID),
		zap.String("total", o.Total.String()),
	)
	return &CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}
