// Package pmm implements the physical frame allocator. The allocator keeps
// one PhysicalPage record for every page of installed RAM and serves
// physically contiguous runs of pages using a first-fit search in ascending
// address order. Given identical input the allocation sequence is therefore
// fully reproducible.
//
// The page array lives in physical memory that the allocator carves out of
// the very regions it describes. The allocator performs no locking; callers
// must serialize access with the lock that protects the page table the
// allocator backs.
package pmm

import (
	"gokern/kernel"
	"gokern/kernel/hwdesc"
	"gokern/kernel/kfmt"
	"gokern/kernel/mm"
	"unsafe"
)

var (
	// ErrOutOfMemory is returned when no run of free pages large enough to
	// satisfy a request exists.
	ErrOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of memory"}

	// ErrNoMemRegions is returned when the hardware description does not
	// report any usable RAM.
	ErrNoMemRegions = &kernel.Error{Module: "pmm", Message: "no usable memory regions found"}

	sizeofPage = unsafe.Sizeof(PhysicalPage{})
)

// Allocator is a physical frame allocator.
type Allocator struct {
	pages []PhysicalPage

	// metadata is the physical range that hosts pages.
	metadata mm.AddressRange
}

// New builds an allocator for the RAM reported by desc. Pages overlapping
// kernelImage are marked as PageKernel and pages overlapping a reserved
// region are marked as PageReserved. The page array is placed in the first
// run of free pages that is large enough to hold it.
func New(desc hwdesc.Description, kernelImage mm.AddressRange) (*Allocator, *kernel.Error) {
	var pageCount uintptr
	desc.VisitMemRegions(func(region mm.AddressRange) bool {
		pageCount += usablePages(region).PageCount()
		return true
	})

	if pageCount == 0 {
		return nil, ErrNoMemRegions
	}

	metadataPages := mm.Size(pageCount * sizeofPage).Pages()

	// Before the page array exists, page classification is computed on
	// the fly from the hardware description.
	isFree := func(page mm.PAddr) bool {
		return classify(desc, kernelImage, page) == PageFree
	}

	metadataBase, found := firstFit(metadataPages, func(visitor pageVisitor) {
		visitDescribedPages(desc, func(page mm.PAddr) bool {
			return visitor(page, isFree(page))
		})
	})
	if !found {
		return nil, ErrOutOfMemory
	}

	alloc := &Allocator{
		pages:    unsafe.Slice((*PhysicalPage)(unsafe.Pointer(uintptr(metadataBase))), pageCount),
		metadata: mm.NewAddressRange(metadataBase, metadataPages<<mm.PageShift),
	}

	index := 0
	visitDescribedPages(desc, func(page mm.PAddr) bool {
		kind := classify(desc, kernelImage, page)
		if alloc.metadata.Contains(page) {
			kind = PageMetadata
		}

		alloc.pages[index] = PhysicalPage{
			Base:   page,
			Kind:   kind,
			IsLast: kind == PageMetadata && page+mm.PAddr(mm.PageSize) == alloc.metadata.End,
		}
		index++
		return true
	})

	return alloc, nil
}

// AllocPages reserves n physically contiguous free pages and returns the
// address of the first one. The pages are marked as PageAllocated and the
// last page of the run is flagged with IsLast. If no suitable run exists
// (or n is zero) AllocPages returns ErrOutOfMemory and leaves the state of
// every page untouched.
func (alloc *Allocator) AllocPages(n uintptr) (mm.PAddr, *kernel.Error) {
	if n == 0 {
		return 0, ErrOutOfMemory
	}

	base, found := firstFit(n, alloc.visitPages)
	if !found {
		return 0, ErrOutOfMemory
	}

	first, _ := alloc.indexOf(base)
	for i := first; i < first+int(n); i++ {
		alloc.pages[i].Kind = PageAllocated
		alloc.pages[i].IsLast = false
	}
	alloc.pages[first+int(n)-1].IsLast = true

	return base, nil
}

// AllocPage reserves a single page and fills it with zeroes.
func (alloc *Allocator) AllocPage() (mm.PAddr, *kernel.Error) {
	page, err := alloc.AllocPages(1)
	if err != nil {
		return 0, err
	}

	mm.Memset(uintptr(page), 0, mm.PageSize)
	return page, nil
}

// FreePages is a no-op. Page reclamation is not supported: memory handed
// out by AllocPages stays allocated for the lifetime of the kernel. The
// call is reported so that code paths relying on it are easy to spot.
func (alloc *Allocator) FreePages(base mm.PAddr) {
	kfmt.Printf("[pmm] warning: ignoring request to free pages at 0x%16x; page reclamation is not supported\n", uintptr(base))
}

// PageFor returns the bookkeeping record for the page that contains pa.
func (alloc *Allocator) PageFor(pa mm.PAddr) (*PhysicalPage, bool) {
	index, found := alloc.indexOf(pa.AlignDown())
	if !found {
		return nil, false
	}
	return &alloc.pages[index], true
}

// VisitMetadataPages invokes visitor with the address of every page that
// holds allocator metadata, in ascending order. Iteration stops if visitor
// returns false.
func (alloc *Allocator) VisitMetadataPages(visitor func(mm.PAddr) bool) {
	alloc.visitKind(PageMetadata, visitor)
}

// VisitAllocatedPages invokes visitor with the address of every page
// returned by AllocPages so far, in ascending order. Iteration stops if
// visitor returns false.
func (alloc *Allocator) VisitAllocatedPages(visitor func(mm.PAddr) bool) {
	alloc.visitKind(PageAllocated, visitor)
}

func (alloc *Allocator) visitKind(kind PageKind, visitor func(mm.PAddr) bool) {
	for i := range alloc.pages {
		if alloc.pages[i].Kind != kind {
			continue
		}
		if !visitor(alloc.pages[i].Base) {
			return
		}
	}
}

func (alloc *Allocator) visitPages(visitor pageVisitor) {
	for i := range alloc.pages {
		if !visitor(alloc.pages[i].Base, alloc.pages[i].Kind == PageFree) {
			return
		}
	}
}

// indexOf locates the page with the given base address using a binary
// search; pages are stored in ascending address order.
func (alloc *Allocator) indexOf(base mm.PAddr) (int, bool) {
	lo, hi := 0, len(alloc.pages)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case alloc.pages[mid].Base == base:
			return mid, true
		case alloc.pages[mid].Base < base:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

// pageVisitor receives pages in ascending address order together with a
// flag indicating whether the page can be allocated.
type pageVisitor func(page mm.PAddr, free bool) bool

// firstFit returns the base address of the first run of n free pages that
// are also physically contiguous. visitPages must report pages in ascending
// address order.
func firstFit(n uintptr, visitPages func(pageVisitor)) (mm.PAddr, bool) {
	var (
		runStart  mm.PAddr
		runLength uintptr
		nextPage  mm.PAddr
	)

	visitPages(func(page mm.PAddr, free bool) bool {
		switch {
		case !free:
			runLength = 0
		case runLength != 0 && page == nextPage:
			runLength++
		default:
			runStart, runLength = page, 1
		}

		nextPage = page + mm.PAddr(mm.PageSize)
		return runLength < n
	})

	return runStart, runLength == n
}

// usablePages returns the pages that are fully contained in region.
func usablePages(region mm.AddressRange) mm.AddressRange {
	return mm.AddressRange{Start: region.Start.AlignUp(), End: region.End.AlignDown()}
}

// visitDescribedPages visits every usable page reported by desc in
// ascending order.
func visitDescribedPages(desc hwdesc.Description, visitor func(mm.PAddr) bool) {
	keepGoing := true
	desc.VisitMemRegions(func(region mm.AddressRange) bool {
		usablePages(region).VisitPages(func(page mm.PAddr) bool {
			keepGoing = visitor(page)
			return keepGoing
		})
		return keepGoing
	})
}

// classify returns the kind of page based on the kernel image bounds and
// the reserved regions of the hardware description.
func classify(desc hwdesc.Description, kernelImage mm.AddressRange, page mm.PAddr) PageKind {
	pageRange := mm.NewAddressRange(page, mm.PageSize)
	if pageRange.Overlaps(kernelImage) {
		return PageKernel
	}

	kind := PageFree
	desc.VisitReservedRegions(func(region mm.AddressRange) bool {
		if pageRange.Overlaps(region) {
			kind = PageReserved
			return false
		}
		return true
	})
	return kind
}
