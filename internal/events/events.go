package events

import (
	"context"
	"time"
)

// OrderFinalized is published after a finalize call commits an order.
type OrderFinalized struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	Total       string    `json:"total"`
	ItemCount   int       `json:"item_count"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// Publisher emits domain events to an external broker. Implementations must
// be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// Nop is a Publisher that discards everything; used when no broker is
// configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }
