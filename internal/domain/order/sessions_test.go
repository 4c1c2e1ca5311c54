package order

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionRegistry_NeverIssued(t *testing.T) {
	r := NewSessionRegistry()
	assert.False(t, r.MaybeIssued("cs_unknown"))
}

func TestSessionRegistry_AddThenTest(t *testing.T) {
	r := NewSessionRegistry()
	r.Add("cs_123")

	assert.True(t, r.MaybeIssued("cs_123"))
	assert.False(t, r.MaybeIssued("cs_456"))
}

func TestSessionRegistry_Warm(t *testing.T) {
	r := NewSessionRegistry()
	r.Warm([]string{"cs_a", "cs_b", "cs_c"})

	assert.True(t, r.MaybeIssued("cs_a"))
	assert.True(t, r.MaybeIssued("cs_b"))
	assert.True(t, r.MaybeIssued("cs_c"))
	assert.False(t, r.MaybeIssued("cs_d"))
}

func TestSessionRegistry_ConcurrentAccess(t *testing.T) {
	r := NewSessionRegistry()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				id := fmt.Sprintf("cs_%d_%d", i, j)
				r.Add(id)
				assert.True(t, r.MaybeIssued(id))
			}
		}()
	}
	wg.Wait()
}
