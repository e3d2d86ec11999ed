package webhook_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsupply/storefront/svc/webhook"
)

func TestMemoryLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("record then seen", func(t *testing.T) {
		t.Parallel()
		ledger := webhook.NewMemoryLedger()

		seen, err := ledger.Seen(ctx, "evt_1")
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, ledger.Record(ctx, "evt_1"))

		seen, err = ledger.Seen(ctx, "evt_1")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("second record reports already processed", func(t *testing.T) {
		t.Parallel()
		ledger := webhook.NewMemoryLedger()
		require.NoError(t, ledger.Record(ctx, "evt_1"))
		assert.ErrorIs(t, ledger.Record(ctx, "evt_1"), webhook.ErrAlreadyProcessed)
	})

	t.Run("exactly one concurrent recorder wins", func(t *testing.T) {
		t.Parallel()
		ledger := webhook.NewMemoryLedger()

		const writers = 16
		var wg sync.WaitGroup
		results := make([]error, writers)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = ledger.Record(ctx, "evt_contested")
			}()
		}
		wg.Wait()

		var wins int
		for _, err := range results {
			if err == nil {
				wins++
			} else {
				assert.ErrorIs(t, err, webhook.ErrAlreadyProcessed)
			}
		}
		assert.Equal(t, 1, wins)
	})

	t.Run("distinct event IDs do not collide", func(t *testing.T) {
		t.Parallel()
		ledger := webhook.NewMemoryLedger()
		for i := range 5 {
			require.NoError(t, ledger.Record(ctx, fmt.Sprintf("evt_%d", i)))
		}
	})
}
