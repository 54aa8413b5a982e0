package docconv

import (
	"context"
	"sync/atomic"
)

// DefaultLimiterCapacity bounds concurrent converter subprocesses when
// no explicit capacity is configured. Each LibreOffice instance is
// memory-heavy, so the default stays small.
const DefaultLimiterCapacity = 2

// Limiter bounds the number of concurrently executing conversions.
// Excess callers block in arrival order for a slot: waiters park on a
// channel send and the runtime wakes them FIFO. The limiter never
// cancels a task it admitted; every task must carry its own deadline.
type Limiter struct {
	slots  chan struct{}
	active atomic.Int64
	peak   atomic.Int64
}

// NewLimiter creates a limiter admitting at most capacity tasks.
// Capacities below one are coerced to one.
func NewLimiter(capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done, in which case it
// returns the context's cancellation cause.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
	default:
		select {
		case l.slots <- struct{}{}:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}

	n := l.active.Add(1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return nil
}

// Release frees a slot. Must be called exactly once per successful
// Acquire, as soon as the admitted subprocess has fully exited — not
// after output dispatch, so slow transfers don't hold conversion slots.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Run acquires a slot, runs task, and releases the slot when task
// returns.
func (l *Limiter) Run(ctx context.Context, task func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return task(ctx)
}

// Capacity returns the configured slot count.
func (l *Limiter) Capacity() int { return cap(l.slots) }

// Active returns the number of currently admitted tasks.
func (l *Limiter) Active() int64 { return l.active.Load() }

// Peak returns the highest concurrent admission observed.
func (l *Limiter) Peak() int64 { return l.peak.Load() }
