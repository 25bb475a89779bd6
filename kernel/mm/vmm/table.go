// Package vmm implements the page table engine and the construction of the
// kernel address space. A PageTable is a hierarchy of 512-entry tables
// whose layout is described by a Scheme; the engine walks the hierarchy,
// allocating intermediate tables on demand, and never reclaims them.
package vmm

import (
	"gokern/kernel"
	"gokern/kernel/mm"
	"unsafe"
)

var (
	// ErrCannotMapNoAlloc is returned when a walk performed without a
	// frame source reaches a missing intermediate table.
	ErrCannotMapNoAlloc = &kernel.Error{Module: "vmm", Message: "mapping requires a new table but allocation was not permitted"}

	// ErrInvalidAddress is returned for addresses that are not page
	// aligned or fall outside the range the format can express.
	ErrInvalidAddress = &kernel.Error{Module: "vmm", Message: "address is misaligned or outside the implemented address width"}

	// ErrNoAccess is returned when Map is asked to install a mapping
	// that grants no access at all.
	ErrNoAccess = &kernel.Error{Module: "vmm", Message: "mapping must grant at least one of read, write or execute access"}

	// ErrInvalidMapping is returned by Translate for unmapped addresses.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

	errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}
)

// FrameSource supplies physical pages for new page tables.
type FrameSource interface {
	AllocPage() (mm.PAddr, *kernel.Error)
}

// table overlays the 512 hardware entries of a single page table.
type table [entriesPerTable]uint64

// PageTable is a page table hierarchy in one of the supported formats.
type PageTable struct {
	scheme Scheme
	root   mm.PAddr

	// active is set once the table has been loaded into the MMU; mapping
	// changes then also flush the local TLB.
	active bool
}

// New allocates an empty root table from src.
func New(scheme Scheme, src FrameSource) (*PageTable, *kernel.Error) {
	root, err := allocTable(src)
	if err != nil {
		return nil, err
	}

	return &PageTable{scheme: scheme, root: root}, nil
}

// Scheme returns the format of the page table.
func (pt *PageTable) Scheme() Scheme { return pt.scheme }

// Root returns the physical address of the root table.
func (pt *PageTable) Root() mm.PAddr { return pt.root }

// Map installs a leaf entry translating the page at va to the page at pa
// with the supplied permissions, allocating any missing intermediate tables
// from src. If src is nil, Map fails with ErrCannotMapNoAlloc instead of
// allocating. An allocation failure aborts the walk; tables installed
// before the failure are kept.
func (pt *PageTable) Map(va mm.VAddr, pa mm.PAddr, perms mm.Permissions, src FrameSource) (Entry, *kernel.Error) {
	return pt.MapAttr(va, pa, perms, MemNormal, src)
}

// MapAttr behaves like Map but also selects the memory type of the page.
func (pt *PageTable) MapAttr(va mm.VAddr, pa mm.PAddr, perms mm.Permissions, attr MemAttr, src FrameSource) (Entry, *kernel.Error) {
	perms = perms.Normalize()
	if !perms.Accessible() {
		return Entry{}, ErrNoAccess
	}

	if !pa.IsAligned() || !pt.scheme.validPAddr(pa) {
		return Entry{}, ErrInvalidAddress
	}

	slot, err := pt.walk(va, src)
	if err != nil {
		return Entry{}, err
	}

	*slot = pt.scheme.encodeLeaf(pa, perms, attr)
	pt.flush(va)

	return pt.scheme.decode(*slot, pt.scheme.Levels()-1), nil
}

// AddInvalidEntry walks to the leaf slot for va exactly like Map but
// installs an entry that the MMU treats as invalid. It reserves the slot
// (and the tables leading to it) so that any access to the page traps.
func (pt *PageTable) AddInvalidEntry(va mm.VAddr, src FrameSource) *kernel.Error {
	slot, err := pt.walk(va, src)
	if err != nil {
		return err
	}

	*slot = pt.scheme.encodeReserved()
	pt.flush(va)
	return nil
}

// IdentityMapRegion maps every page touched by r to itself.
func (pt *PageTable) IdentityMapRegion(r mm.AddressRange, perms mm.Permissions, attr MemAttr, src FrameSource) *kernel.Error {
	var err *kernel.Error
	r.VisitPages(func(page mm.PAddr) bool {
		_, err = pt.MapAttr(mm.IdentityVAddr(page), page, perms, attr, src)
		return err == nil
	})
	return err
}

// Lookup returns the leaf-level entry for va. If an intermediate table on
// the way is missing the entry is reported as EntryAbsent.
func (pt *PageTable) Lookup(va mm.VAddr) Entry {
	if !va.IsAligned() {
		va = va.AlignDown()
	}

	slot, err := pt.walk(va, nil)
	if err != nil {
		return Entry{Kind: EntryAbsent}
	}
	return pt.scheme.decode(*slot, pt.scheme.Levels()-1)
}

// Translate returns the physical address that va maps to or
// ErrInvalidMapping if va is not backed by a valid leaf entry.
func (pt *PageTable) Translate(va mm.VAddr) (mm.PAddr, *kernel.Error) {
	entry := pt.Lookup(va)
	if entry.Kind != EntryLeaf {
		return 0, ErrInvalidMapping
	}

	return entry.Addr + mm.PAddr(va.PageOffset()), nil
}

// walk descends from the root table to the last-level slot for va. Missing
// intermediate tables are allocated from src; a nil src turns a missing
// table into ErrCannotMapNoAlloc.
func (pt *PageTable) walk(va mm.VAddr, src FrameSource) (*uint64, *kernel.Error) {
	if !va.IsAligned() || !pt.scheme.validVAddr(va) {
		return nil, ErrInvalidAddress
	}

	var (
		lastLevel = pt.scheme.Levels() - 1
		tableAddr = pt.root
	)

	for level := 0; level < lastLevel; level++ {
		slot := tableAt(tableAddr, pt.scheme.index(va, level))

		entry := pt.scheme.decode(*slot, level)
		switch entry.Kind {
		case EntryTable:
			tableAddr = entry.Addr
			continue
		case EntryLeaf:
			return nil, errNoHugePageSupport
		}

		// Next table does not yet exist; allocate and install it.
		if src == nil {
			return nil, ErrCannotMapNoAlloc
		}

		next, err := allocTable(src)
		if err != nil {
			return nil, err
		}

		*slot = pt.scheme.encodeTable(next)
		tableAddr = next
	}

	return tableAt(tableAddr, pt.scheme.index(va, lastLevel)), nil
}

func (pt *PageTable) flush(va mm.VAddr) {
	if pt.active {
		pt.scheme.flushTLB(va)
	}
}

// allocTable obtains a page from src and clears it so that every entry of
// the new table is invalid.
func allocTable(src FrameSource) (mm.PAddr, *kernel.Error) {
	page, err := src.AllocPage()
	if err != nil {
		return 0, err
	}

	mm.Memset(uintptr(page), 0, mm.PageSize)
	return page, nil
}

// tableAt returns a pointer to entry index of the table at the physical
// address tableAddr. Page tables are always reachable through an identity
// mapping.
func tableAt(tableAddr mm.PAddr, index uintptr) *uint64 {
	return &(*table)(unsafe.Pointer(uintptr(tableAddr)))[index]
}
