package pmm

import (
	"gokern/kernel/kfmt"
	"gokern/kernel/mm"
)

// Stats summarizes the number of pages of each kind tracked by an
// allocator.
type Stats struct {
	Total     uintptr
	Free      uintptr
	Allocated uintptr
	Kernel    uintptr
	Reserved  uintptr
	Metadata  uintptr
}

// Stats returns a snapshot of the page counters.
func (alloc *Allocator) Stats() Stats {
	st := Stats{Total: uintptr(len(alloc.pages))}
	for i := range alloc.pages {
		switch alloc.pages[i].Kind {
		case PageFree:
			st.Free++
		case PageAllocated:
			st.Allocated++
		case PageKernel:
			st.Kernel++
		case PageReserved:
			st.Reserved++
		case PageMetadata:
			st.Metadata++
		}
	}
	return st
}

// PrintMemoryMap outputs the physical memory layout as seen by the
// allocator. Consecutive pages of the same kind are coalesced into a
// single line.
func (alloc *Allocator) PrintMemoryMap() {
	kfmt.Printf("[pmm] physical memory map:\n")

	for start := 0; start < len(alloc.pages); {
		end := start + 1
		for end < len(alloc.pages) &&
			alloc.pages[end].Kind == alloc.pages[start].Kind &&
			alloc.pages[end].Base == alloc.pages[end-1].Base+mm.PAddr(mm.PageSize) {
			end++
		}

		kfmt.Printf("\t[0x%10x - 0x%10x] %9s (%d pages)\n",
			uintptr(alloc.pages[start].Base),
			uintptr(alloc.pages[end-1].Base)+mm.PageSize-1,
			alloc.pages[start].Kind.String(),
			end-start,
		)
		start = end
	}

	st := alloc.Stats()
	kfmt.Printf("[pmm] pages: total %d, free %d, kernel %d, reserved %d, metadata %d, allocated %d\n",
		st.Total, st.Free, st.Kernel, st.Reserved, st.Metadata, st.Allocated)
}
