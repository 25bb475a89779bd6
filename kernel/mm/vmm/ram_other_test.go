//go:build !linux

package vmm

import "testing"

// testRAM returns size bytes of Go memory. Its address may be too high to
// be identity mapped by every scheme.
func testRAM(_ *testing.T, size uintptr) []byte {
	return make([]byte, size)
}
