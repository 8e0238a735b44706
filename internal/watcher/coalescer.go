package watcher

import (
	"context"
	"sync"
	"sync/atomic"
)

// Coalescer is a single-slot trigger mailbox. Bursts of change
// notifications collapse into at most one pending trigger: producers signal
// without blocking and are dropped while a previous trigger is still
// unconsumed, the single consumer blocks until a trigger arrives.
//
// Admission is deliberately relaxed: a signal arriving in the window after
// the consumer receives but before the outstanding count is decremented is
// dropped. The rebuild it would have requested happens on the next accepted
// signal instead.
type Coalescer struct {
	admit       sync.Mutex
	outstanding atomic.Int64
	slot        chan struct{}
}

// NewCoalescer creates an empty coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{
		slot: make(chan struct{}, 1),
	}
}

// TrySignal attempts to queue a trigger without blocking. It reports whether
// the trigger was queued; false means it was dropped, either because another
// producer held the admission lock or because a trigger is already pending.
func (c *Coalescer) TrySignal() bool {
	if !c.admit.TryLock() {
		return false
	}
	defer c.admit.Unlock()

	if c.outstanding.Load() > 0 {
		return false
	}

	select {
	case c.slot <- struct{}{}:
		c.outstanding.Add(1)
		return true
	default:
		// Slot full without a recorded outstanding trigger should not
		// happen with a single consumer; treat as a drop.
		return false
	}
}

// Wait blocks until a trigger is available or the context is done. Exactly
// one goroutine may call Wait.
func (c *Coalescer) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.slot:
		c.outstanding.Add(-1)
		return nil
	}
}

// Outstanding returns the number of queued, unconsumed triggers (0 or 1).
func (c *Coalescer) Outstanding() int {
	return int(c.outstanding.Load())
}
