package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapCounterStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func (s *mapCounterStore) Increment(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]int64)
	}
	s.values[key]++
	return s.values[key], nil
}

type failingCounterStore struct{}

func (failingCounterStore) Increment(context.Context, string) (int64, error) {
	return 0, errors.New("counter file corrupt")
}

func TestNextIsStrictlyIncreasingPerKey(t *testing.T) {
	seq := New(&mapCounterStore{}, zap.NewNop())
	ctx := context.Background()

	var last int64
	for i := 0; i < 100; i++ {
		value := seq.Next(ctx, KeyTicket)
		assert.Greater(t, value, last)
		last = value
	}

	// Independent keys do not share a sequence.
	assert.Equal(t, int64(1), seq.Next(ctx, KeyAccount))
}

func TestNextIsUniqueUnderConcurrency(t *testing.T) {
	seq := New(&mapCounterStore{}, zap.NewNop())
	ctx := context.Background()

	const workers = 16
	const perWorker = 50

	results := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				results <- seq.Next(ctx, KeyTicket)
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, workers*perWorker)
	for value := range results {
		require.False(t, seen[value], "duplicate id %d", value)
		seen[value] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestNextFallsBackToWallClockWhenCounterUnreadable(t *testing.T) {
	seq := New(failingCounterStore{}, zap.NewNop())
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seq.clock = func() time.Time { return fixed }

	value := seq.Next(context.Background(), KeyTicket)
	assert.Equal(t, fixed.UnixMilli(), value)
}
