package vmm

import "gokern/kernel/mm"

const (
	// entriesPerTable is the number of 64-bit entries in a 4 KiB table;
	// both supported formats use 9 index bits per level.
	entriesPerTable = 512
	indexMask       = entriesPerTable - 1
)

// Scheme describes a hardware page table format. The set of schemes is
// closed: a kernel image targets exactly one MMU and the only
// implementations are ARMv8 and Sv39.
type Scheme interface {
	// Name returns a short description of the format.
	Name() string

	// Levels returns the number of translation levels.
	Levels() int

	// index returns the slot that translates va at the given level.
	index(va mm.VAddr, level int) uintptr

	// validVAddr reports whether va is a canonical address for the
	// implemented virtual address width.
	validVAddr(va mm.VAddr) bool

	// validPAddr reports whether pa can be encoded in an entry.
	validPAddr(pa mm.PAddr) bool

	// encodeTable returns a descriptor pointing to the table at pa.
	encodeTable(pa mm.PAddr) uint64

	// encodeLeaf returns a valid last-level entry mapping pa. perms has
	// already been normalized and grants some access.
	encodeLeaf(pa mm.PAddr, perms mm.Permissions, attr MemAttr) uint64

	// encodeReserved returns an invalid last-level entry that is
	// recognizable as deliberately reserved.
	encodeReserved() uint64

	// decode interprets raw as an entry read from the given level.
	decode(raw uint64, level int) Entry

	// activate loads root into the MMU of the calling core and enables
	// translation.
	activate(root mm.PAddr)

	// flushTLB drops any cached translation for va on the calling core.
	flushTLB(va mm.VAddr)
}
