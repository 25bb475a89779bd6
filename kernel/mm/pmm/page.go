package pmm

import "gokern/kernel/mm"

// PageKind classifies a physical page.
type PageKind uint8

const (
	// PageFree pages can be handed out by the allocator.
	PageFree PageKind = iota

	// PageAllocated pages have been returned by AllocPages.
	PageAllocated

	// PageKernel pages overlap the loaded kernel image.
	PageKernel

	// PageReserved pages were declared reserved by the hardware
	// description (firmware tables, device-tree blob, etc.).
	PageReserved

	// PageMetadata pages hold the allocator's own page array.
	PageMetadata
)

var pageKindNames = [...]string{
	PageFree:      "free",
	PageAllocated: "allocated",
	PageKernel:    "kernel",
	PageReserved:  "reserved",
	PageMetadata:  "metadata",
}

// String implements fmt.Stringer.
func (k PageKind) String() string {
	if int(k) < len(pageKindNames) {
		return pageKindNames[k]
	}
	return "unknown"
}

// PhysicalPage holds the allocator's bookkeeping for a single page of
// installed RAM.
type PhysicalPage struct {
	// Base is the physical address of the first byte of the page.
	Base mm.PAddr

	// Kind describes what the page is currently used for.
	Kind PageKind

	// IsLast is set on the final page of each run returned by
	// AllocPages.
	IsLast bool
}
