//go:build linux

package vmm

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

// lowRAMBases are candidate addresses for test RAM. All of them lie below
// the Sv39 limit so that every scheme can identity map the memory.
var lowRAMBases = []uintptr{0x40000000, 0x80000000, 0x100000000, 0x1000000000}

// testRAM reserves size bytes of anonymous memory at a fixed low address.
// The memory is released when the test completes.
func testRAM(t *testing.T, size uintptr) []byte {
	for _, base := range lowRAMBases {
		ptr, err := unix.MmapPtr(-1, 0, unsafe.Pointer(base), size,
			unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_FIXED_NOREPLACE,
		)
		if err != nil {
			continue
		}

		// Kernels without MAP_FIXED_NOREPLACE treat base as a hint.
		if uintptr(ptr) != base {
			_ = unix.MunmapPtr(ptr, size)
			continue
		}

		t.Cleanup(func() { _ = unix.MunmapPtr(ptr, size) })
		return unsafe.Slice((*byte)(ptr), size)
	}

	t.Fatalf("unable to reserve %d bytes of test RAM below 0x%x", size, uint64(1)<<(sv39VABits-1))
	return nil
}
