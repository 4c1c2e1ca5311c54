package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for the checkout and finalize flows.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart rejects a checkout attempt with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidSession rejects a finalize call whose session id is missing
	// or was never issued by this service.
	ErrInvalidSession = errors.New("invalid checkout session")
)

// Status is the lifecycle state of an order. Transitions only move forward:
// pending -> shipped -> delivered.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

// statusRank orders the lifecycle states for forward-only transition checks.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusShipped:   1,
	StatusDelivered: 2,
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether moving from s to next is a forward move.
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return statusRank[next] > statusRank[s]
}

// InvalidTransitionError indicates an attempt to move an order's status
// backwards or to an unknown state.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Item is one frozen order line. Unlike cart lines, name and price are a
// snapshot taken at checkout-session creation and never change afterwards.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order is one checkout attempt tied to a gateway session. The item snapshot
// and total are immutable once created; only Status may change, and only
// forward.
type Order struct {
	ID              string
	UserID          string
	Items           []Item
	Total           decimal.Decimal
	StripeSessionID string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Repository defines persistence operations for orders and their
// finalization markers.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetBySession(ctx context.Context, userID, sessionID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	// ListSessionIDs returns every persisted gateway session id; used to warm
	// the issued-session registry at startup.
	ListSessionIDs(ctx context.Context) ([]string, error)

	// MarkFinalized records the idempotency marker for (userID, sessionID).
	// Re-marking an already marked pair is a no-op.
	MarkFinalized(ctx context.Context, userID, sessionID string) error
	// IsFinalized reports whether the (userID, sessionID) pair has been
	// committed by a previous finalize call.
	IsFinalized(ctx context.Context, userID, sessionID string) (bool, error)
}

// AdvanceStatus moves the order to next, enforcing forward-only
// transitions. A backwards or unknown move returns InvalidTransitionError.
func AdvanceStatus(ctx context.Context, repo Repository, id string, next Status) (*Order, error) {
	o, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(next) {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}
	return repo.UpdateStatus(ctx, id, next)
}
