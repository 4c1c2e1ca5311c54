package order

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	sessionFilterCapacity = 1_000_000
	sessionFilterFPR      = 0.001
)

// SessionRegistry tracks gateway session ids issued by this service in a
// bloom filter. Finalize uses it to reject garbage session ids before
// touching the database: a negative answer is definitive, a positive one
// still requires the order lookup.
//
// The filter is empty after a restart, so it must be warmed from the orders
// table before serving traffic.
type SessionRegistry struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewSessionRegistry returns an empty registry sized for one million
// sessions at a 0.1% false positive rate.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		filter: bloom.NewWithEstimates(sessionFilterCapacity, sessionFilterFPR),
	}
}

// Add records a newly issued session id.
func (r *SessionRegistry) Add(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter.AddString(sessionID)
}

// Warm bulk-loads previously persisted session ids.
func (r *SessionRegistry) Warm(sessionIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range sessionIDs {
		r.filter.AddString(id)
	}
}

// MaybeIssued reports whether sessionID may have been issued. False means
// the id was definitely never issued.
func (r *SessionRegistry) MaybeIssued(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter.TestString(sessionID)
}
