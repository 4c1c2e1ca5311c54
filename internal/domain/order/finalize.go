package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/evoloop/storefront/internal/domain/cart"
	"github.com/evoloop/storefront/internal/domain/product"
	"github.com/evoloop/storefront/internal/domain/shipping"
	"github.com/evoloop/storefront/internal/events"
)

// FinalizeStatus classifies the outcome of a finalize call.
type FinalizeStatus string

const (
	// FinalizeCommitted means stock was decremented and the marker written.
	FinalizeCommitted FinalizeStatus = "committed"
	// FinalizeAlreadyCommitted means a previous call already committed this
	// session; nothing was done.
	FinalizeAlreadyCommitted FinalizeStatus = "already_committed"
	// FinalizeEmptyCart means the order snapshot was empty; the cart was
	// still cleared.
	FinalizeEmptyCart FinalizeStatus = "empty_cart"
	// FinalizeStockConflict means payment was captured but the stock
	// reservation failed; the discrepancy is logged for reconciliation and
	// the cart was still cleared.
	FinalizeStockConflict FinalizeStatus = "stock_conflict"
)

// FinalizeResult is the outcome of a finalize call.
type FinalizeResult struct {
	Status  FinalizeStatus
	Order   *Order
	Message string
}

// FinalizeParams is the input to Finalize. Shipping is optional: when set,
// a profile is created for the user if they have none.
type FinalizeParams struct {
	UserID    string
	SessionID string
	Shipping  *shipping.Fields
}

// Finalizer reconciles a completed payment session with its pending order:
// it decrements stock, ensures a shipping profile, clears the cart, and
// records an idempotency marker so repeat calls for the same (user, session)
// are no-ops.
type Finalizer struct {
	products  product.Repository
	orders    Repository
	shippings *shipping.Service
	carts     *cart.Service
	sessions  *SessionRegistry
	publisher events.Publisher
}

// NewFinalizer creates a Finalizer with the required dependencies.
func NewFinalizer(
	products product.Repository,
	orders Repository,
	shippings *shipping.Service,
	carts *cart.Service,
	sessions *SessionRegistry,
	publisher events.Publisher,
) *Finalizer {
	return &Finalizer{
		products:  products,
		orders:    orders,
		shippings: shippings,
		carts:     carts,
		sessions:  sessions,
		publisher: publisher,
	}
}

// Finalize runs the post-payment commit for one (user, session) pair.
//
// The gateway considers the payment complete before this is ever called, so
// from the stock reservation onwards the flow never blocks the customer:
// a reservation shortfall is reported as a soft stock_conflict result, the
// cart is cleared regardless, and the discrepancy is logged for manual
// reconciliation. Only a missing or never-issued session id is a hard
// error, and it has no side effects.
func (f *Finalizer) Finalize(ctx context.Context, params FinalizeParams) (*FinalizeResult, error) {
	if params.SessionID == "" {
		return nil, ErrInvalidSession
	}
	lg := zctx.From(ctx).With(
		zap.String("user_id", params.UserID),
		zap.String("session_id", params.SessionID),
	)

	done, err := f.orders.IsFinalized(ctx, params.UserID, params.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "check finalization marker")
	}
	if done {
		o, err := f.orders.GetBySession(ctx, params.UserID, params.SessionID)
		if err != nil {
			return nil, errors.Wrap(err, "load committed order")
		}
		lg.Info("Finalize repeated for committed session")
		return &FinalizeResult{Status: FinalizeAlreadyCommitted, Order: o}, nil
	}

	// The registry answers "definitely never issued" without a round trip;
	// positives still go through the order lookup.
	if !f.sessions.MaybeIssued(params.SessionID) {
		return nil, ErrInvalidSession
	}
	o, err := f.orders.GetBySession(ctx, params.UserID, params.SessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, errors.Wrap(err, "get order by session")
	}

	if len(o.Items) == 0 {
		lg.Warn("Empty order snapshot at finalize")
		f.clearCart(ctx, params.UserID)
		return &FinalizeResult{Status: FinalizeEmptyCart, Message: "cart was empty, no order committed"}, nil
	}

	// The stored total was computed server-side at checkout; recompute from
	// the snapshot anyway and log if the row disagrees. Client-supplied
	// totals never reach this path.
	recomputed := decimal.Zero
	reserve := make([]product.ReserveItem, len(o.Items))
	for i, it := range o.Items {
		reserve[i] = product.ReserveItem{ProductID: it.ProductID, Quantity: it.Quantity}
		recomputed = recomputed.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !recomputed.Round(2).Equal(o.Total) {
		lg.Warn("Order total disagrees with snapshot",
			zap.String("stored", o.Total.String()),
			zap.String("recomputed", recomputed.Round(2).String()),
		)
	}

	if err := f.products.Reserve(ctx, reserve); err != nil {
		var ise *product.InsufficientStockError
		if errors.As(err, &ise) || errors.Is(err, product.ErrNotFound) {
			// Payment is already captured; surface a soft failure and leave
			// the marker unwritten so a retry can re-attempt the reservation.
			lg.Error("Stock reservation failed after payment capture, manual reconciliation required",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
			if err := f.ensureShipping(ctx, params, lg); err != nil {
				lg.Warn("Shipping profile not saved during stock conflict", zap.Error(err))
			}
			f.clearCart(ctx, params.UserID)
			return &FinalizeResult{Status: FinalizeStockConflict, Order: o, Message: err.Error()}, nil
		}
		return nil, errors.Wrap(err, "reserve stock")
	}

	// Forward-only from here: stock is already decremented and there is no
	// compensation path, so a shipping failure surfaces as an error with the
	// decrement kept.
	if err := f.ensureShipping(ctx, params, lg); err != nil {
		return nil, errors.Wrap(err, "ensure shipping profile")
	}

	f.clearCart(ctx, params.UserID)

	if err := f.orders.MarkFinalized(ctx, params.UserID, params.SessionID); err != nil {
		return nil, errors.Wrap(err, "mark finalized")
	}

	f.publish(ctx, o, lg)

	lg.Info("Order finalized", zap.String("order_id", o.ID))
	return &FinalizeResult{Status: FinalizeCommitted, Order: o}, nil
}

// ensureShipping creates the user's shipping profile when finalize carried
// fields and none exists yet. Validation problems are logged, not fatal:
// checkout normally created the profile already.
func (f *Finalizer) ensureShipping(ctx context.Context, params FinalizeParams, lg *zap.Logger) error {
	if params.Shipping == nil {
		return nil
	}
	_, err := f.shippings.EnsureForUser(ctx, params.UserID, *params.Shipping)
	var verr *shipping.ValidationError
	if errors.As(err, &verr) {
		lg.Warn("Skipping shipping profile at finalize", zap.Error(err))
		return nil
	}
	return err
}

// clearCart deletes the user's cart; the gateway already considers the
// transaction complete, so failures here are logged and swallowed.
func (f *Finalizer) clearCart(ctx context.Context, userID string) {
	if err := f.carts.Clear(ctx, userID); err != nil {
		zctx.From(ctx).Warn("Cart clear failed during finalize",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// publish emits the order.finalized event; broker trouble never blocks the
// flow.
func (f *Finalizer) publish(ctx context.Context, o *Order, lg *zap.Logger) {
	event := events.OrderFinalized{
		OrderID:     o.ID,
		UserID:      o.UserID,
		SessionID:   o.StripeSessionID,
		Total:       o.Total.String(),
		ItemCount:   len(o.Items),
		FinalizedAt: time.Now().UTC(),
	}
	if err := f.publisher.Publish(ctx, o.ID, event); err != nil {
		lg.Warn("Publish order.finalized failed", zap.Error(err))
	}
}
