package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescerSingleSignal(t *testing.T) {
	c := NewCoalescer()

	assert.True(t, c.TrySignal())
	assert.Equal(t, 1, c.Outstanding())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
	assert.Equal(t, 0, c.Outstanding())
}

func TestCoalescerBurstCollapsesToOne(t *testing.T) {
	c := NewCoalescer()

	accepted := 0
	for i := 0; i < 50; i++ {
		if c.TrySignal() {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, c.Outstanding())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))

	// Nothing else queued: a second Wait must block until cancellation.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	assert.ErrorIs(t, c.Wait(ctx2), context.DeadlineExceeded)
}

func TestCoalescerConcurrentProducers(t *testing.T) {
	c := NewCoalescer()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if c.TrySignal() {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	// No consumer ran, so exactly one signal can have been admitted.
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, c.Outstanding())
}

func TestCoalescerAcceptsAgainAfterWait(t *testing.T) {
	c := NewCoalescer()
	ctx := context.Background()

	for round := 0; round < 5; round++ {
		require.True(t, c.TrySignal(), "round %d", round)
		require.False(t, c.TrySignal(), "round %d duplicate", round)
		require.NoError(t, c.Wait(ctx))
	}
}

func TestCoalescerWaitHonorsCancellation(t *testing.T) {
	c := NewCoalescer()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Wait(ctx)
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock on cancellation")
	}
}
