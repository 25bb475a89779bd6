package sync

import (
	"gokern/kernel"
	"gokern/kernel/cpu"
	"sync/atomic"

	xcpu "golang.org/x/sys/cpu"
)

// noOwner is stored in the owner half of the lock word while the lock is
// free. Core ids are small integers so the value can never collide with a
// real owner.
const noOwner = ^uint32(0)

// freeState is the lock word of an unlocked ReentrantSpinlock.
const freeState = uint64(noOwner) << 32

var (
	// coreIDFn returns the id of the calling core. Tests replace it to
	// simulate several cores with goroutines.
	coreIDFn = cpu.CoreID

	errNotOwner = &kernel.Error{Module: "sync", Message: "reentrant spinlock released by a core that does not own it"}
)

// ReentrantSpinlock is a spinlock that the owning core may acquire again
// without deadlocking. This is required for state that is touched both by
// normal kernel flow and by trap handlers running on the same core, such as
// the kernel page table. Other cores busy-wait until the owner has released
// the lock as many times as it acquired it. Waiters are not queued and no
// fairness is provided.
//
// The zero value is not ready for use; call NewReentrantSpinlock.
type ReentrantSpinlock struct {
	_ xcpu.CacheLinePad

	// state packs the owning core (high half) and the nesting depth (low
	// half) so that every transition is a single atomic operation. A trap
	// taken on the owning core between two updates always observes a
	// consistent owner and depth.
	state atomic.Uint64

	_ xcpu.CacheLinePad
}

// NewReentrantSpinlock returns an unlocked ReentrantSpinlock.
func NewReentrantSpinlock() *ReentrantSpinlock {
	l := new(ReentrantSpinlock)
	l.Init()
	return l
}

// Init resets the lock to its unlocked state. It is useful for locks that
// are embedded in statically allocated structures.
func (l *ReentrantSpinlock) Init() {
	l.state.Store(freeState)
}

// Acquire blocks until the calling core owns the lock.
func (l *ReentrantSpinlock) Acquire() {
	l.AcquireOn(coreIDFn())
}

// TryAcquire attempts to acquire the lock for the calling core without
// spinning and reports whether it succeeded.
func (l *ReentrantSpinlock) TryAcquire() bool {
	return l.TryAcquireOn(coreIDFn())
}

// Release undoes one Acquire by the owning core. The lock becomes available
// to other cores once every nested Acquire has been released. Releasing a
// lock that the calling core does not own is a programming error and
// panics.
func (l *ReentrantSpinlock) Release() {
	l.ReleaseOn(coreIDFn())
}

// Held reports whether the calling core currently owns the lock.
func (l *ReentrantSpinlock) Held() bool {
	owner, _ := unpack(l.state.Load())
	return owner == coreIDFn()
}

// AcquireOn blocks until core owns the lock. It is used by callers that
// already know the id of the executing core.
func (l *ReentrantSpinlock) AcquireOn(core uint32) {
	for attempt := uint32(1); !l.TryAcquireOn(core); attempt++ {
		if attempt%spinsBeforeYield == 0 {
			yield()
		}
	}
}

// TryAcquireOn attempts to acquire the lock for core without spinning.
func (l *ReentrantSpinlock) TryAcquireOn(core uint32) bool {
	for {
		state := l.state.Load()
		owner, depth := unpack(state)

		switch owner {
		case core:
			// Only core can modify a word it owns; the CAS fails only if
			// a trap on this core acquired and released in between.
			if l.state.CompareAndSwap(state, pack(core, depth+1)) {
				return true
			}
		case noOwner:
			if l.state.CompareAndSwap(freeState, pack(core, 1)) {
				return true
			}
		default:
			return false
		}
	}
}

// ReleaseOn undoes one acquisition by core. It panics if core does not own
// the lock.
func (l *ReentrantSpinlock) ReleaseOn(core uint32) {
	for {
		state := l.state.Load()
		owner, depth := unpack(state)
		if owner != core || depth == 0 {
			panic(errNotOwner)
		}

		next := pack(core, depth-1)
		if depth == 1 {
			next = freeState
		}

		if l.state.CompareAndSwap(state, next) {
			return
		}
	}
}

func pack(owner, depth uint32) uint64 {
	return uint64(owner)<<32 | uint64(depth)
}

func unpack(state uint64) (owner, depth uint32) {
	return uint32(state >> 32), uint32(state)
}
