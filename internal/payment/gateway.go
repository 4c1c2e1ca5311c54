package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrGateway wraps any failure returned by the external payment provider.
// Callers treat it as "payment initiation failed": nothing was persisted.
var ErrGateway = errors.New("payment gateway error")

// LineItem is one gateway-facing checkout line: display name, unit price in
// major currency units, and quantity.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// SessionParams describes one hosted checkout attempt.
type SessionParams struct {
	// Reference is an opaque caller-side id attached to the session for
	// later reconciliation.
	Reference string
	LineItems []LineItem
}

// Session is the provider's handle for a hosted checkout: an opaque id and
// the URL the customer is redirected to.
type Session struct {
	ID  string
	URL string
}

// Gateway creates hosted checkout sessions with an external payment
// provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
}
