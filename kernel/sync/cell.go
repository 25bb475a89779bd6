package sync

import "sync/atomic"

// Cell holds a value that is set exactly once during boot and read many
// times afterwards. It replaces process-wide mutable globals such as the
// kernel page table or the active interrupt chip.
type Cell[T any] struct {
	ptr atomic.Pointer[T]
}

// Set stores v in the cell. It returns false and leaves the cell untouched
// if a value has already been stored.
func (c *Cell[T]) Set(v *T) bool {
	return c.ptr.CompareAndSwap(nil, v)
}

// Get returns the stored value or nil if Set has not been called yet.
func (c *Cell[T]) Get() *T {
	return c.ptr.Load()
}

// IsSet reports whether the cell has been populated.
func (c *Cell[T]) IsSet() bool {
	return c.ptr.Load() != nil
}
