// Package mmio provides access to memory-mapped device registers.
//
// Register accesses go through sync/atomic so that the compiler emits
// exactly one 32-bit load or store per call and never merges, splits or
// elides it.
package mmio

import (
	"sync/atomic"
	"unsafe"
)

// Read32 returns the 32-bit register value at addr.
func Read32(addr uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

// Write32 stores val to the 32-bit register at addr.
func Write32(addr uintptr, val uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(addr)), val)
}

// SetBits32 performs a read-modify-write that sets the bits in mask.
func SetBits32(addr uintptr, mask uint32) {
	Write32(addr, Read32(addr)|mask)
}
