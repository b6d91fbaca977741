package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOptions() Options {
	return Options{
		QueueSize:      8,
		MaxAttempts:    3,
		AttemptTimeout: time.Second,
		RetryBackoff:   time.Millisecond,
	}
}

func TestAsyncDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewAsyncDispatcher(testOptions(), zap.NewNop())

	var mu sync.Mutex
	var got []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketCreated, TicketID: "1_20260310"}))
	d.Close()

	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
}

func TestAsyncDispatcherRetriesUntilSuccess(t *testing.T) {
	d := NewAsyncDispatcher(testOptions(), zap.NewNop())

	var calls int32
	d.Subscribe(EventTicketResolved, func(context.Context, Event) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("smtp unavailable")
		}
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{ID: "e2", Type: EventTicketResolved}))
	d.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAsyncDispatcherSwallowsPermanentFailures(t *testing.T) {
	d := NewAsyncDispatcher(testOptions(), zap.NewNop())

	var calls int32
	d.Subscribe(EventTicketAccepted, func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("always down")
	})

	// Publish must not surface the handler failure.
	require.NoError(t, d.Publish(context.Background(), Event{ID: "e3", Type: EventTicketAccepted}))
	d.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "one call per configured attempt")
}

func TestAsyncDispatcherPublishDoesNotBlockWhenQueueFull(t *testing.T) {
	opts := testOptions()
	opts.QueueSize = 1
	d := NewAsyncDispatcher(opts, zap.NewNop())

	release := make(chan struct{})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		<-release
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = d.Publish(context.Background(), Event{Type: EventTicketCreated})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full queue")
	}
	close(release)
	d.Close()
}
