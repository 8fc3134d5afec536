package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgrid/internal/domain"
)

func TestMemoryCounterStoreEnsureIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCounterStore()

	require.NoError(t, store.Ensure(ctx, 1, domain.MetricSearches, "202503"))
	require.NoError(t, store.Ensure(ctx, 1, domain.MetricSearches, "202503"))

	assert.Equal(t, 1, store.Len())
	value, err := store.Read(ctx, 1, domain.MetricSearches, "202503")
	require.NoError(t, err)
	assert.Equal(t, 0, value)

	// Ensure after increments must never reset the value.
	require.NoError(t, store.Increment(ctx, 1, domain.MetricSearches, "202503", 3))
	require.NoError(t, store.Ensure(ctx, 1, domain.MetricSearches, "202503"))
	value, err = store.Read(ctx, 1, domain.MetricSearches, "202503")
	require.NoError(t, err)
	assert.Equal(t, 3, value)
}

func TestMemoryCounterStoreConcurrentIncrements(t *testing.T) {
	for _, n := range []int{2, 10, 100} {
		t.Run(fmt.Sprintf("%d writers", n), func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryCounterStore()

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := store.Increment(ctx, 7, domain.MetricLeads, "202503", 1); err != nil {
						t.Errorf("Increment() error = %v", err)
					}
				}()
			}
			wg.Wait()

			value, err := store.Read(ctx, 7, domain.MetricLeads, "202503")
			require.NoError(t, err)
			assert.Equal(t, n, value)

			// Other keys stay untouched.
			other, err := store.Read(ctx, 7, domain.MetricSearches, "202503")
			require.NoError(t, err)
			assert.Equal(t, 0, other)
		})
	}
}
