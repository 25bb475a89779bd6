// Package sync provides the spinlock primitives used to serialize access to
// state shared between cores and trap handlers.
package sync

import (
	"runtime"
	"sync/atomic"
)

var (
	// yieldFn is invoked by waiters between acquisition attempts. There is
	// no scheduler to yield to so by default waiters simply spin.
	yieldFn func()

	// spinsBeforeYield controls how many failed attempts a waiter makes
	// before calling yieldFn.
	spinsBeforeYield uint32 = 64
)

// Spinlock implements a lock where each core trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state atomic.Uint32
}

// Acquire blocks until the lock can be acquired by the calling core. Any
// attempt to re-acquire a lock already held by the same core deadlocks; use
// ReentrantSpinlock when that is a possibility.
func (l *Spinlock) Acquire() {
	for attempt := uint32(1); !l.TryAcquire(); attempt++ {
		if attempt%spinsBeforeYield == 0 {
			yield()
		}
	}
}

// TryAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release relinquishes a held lock allowing other cores to acquire it.
// Calling Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	l.state.Store(0)
}

func yield() {
	if yieldFn != nil {
		yieldFn()
		return
	}
	// Keeps hosted builds (tests) from starving the goroutine holding
	// the lock; compiles to a no-op loop body on bare metal.
	runtime.Gosched()
}
