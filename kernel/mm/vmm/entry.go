package vmm

import "gokern/kernel/mm"

// EntryKind identifies the role of a decoded page table entry.
type EntryKind uint8

const (
	// EntryAbsent marks an entry that has never been populated.
	EntryAbsent EntryKind = iota

	// EntryReserved marks a deliberately invalid leaf installed by
	// AddInvalidEntry. Any access to the page traps.
	EntryReserved

	// EntryTable marks a descriptor that points to the next-level table.
	// Descriptors only appear above the last translation level.
	EntryTable

	// EntryLeaf marks an entry that terminates a translation.
	EntryLeaf
)

var entryKindNames = [...]string{
	EntryAbsent:   "absent",
	EntryReserved: "reserved",
	EntryTable:    "table",
	EntryLeaf:     "leaf",
}

// String implements fmt.Stringer.
func (k EntryKind) String() string {
	if int(k) < len(entryKindNames) {
		return entryKindNames[k]
	}
	return "unknown"
}

// MemAttr selects the memory type used for a leaf mapping.
type MemAttr uint8

const (
	// MemNormal is write-back cacheable memory (RAM).
	MemNormal MemAttr = iota

	// MemDevice is non-cacheable, non-reordering device memory used for
	// MMIO windows. Schemes without per-page memory types ignore it.
	MemDevice
)

// Entry is the decoded, architecture-independent form of a page table
// entry. Tables keep entries in the hardware format; Entry values are
// produced by decoding them according to the translation level they were
// read from.
type Entry struct {
	Kind EntryKind

	// Addr is the physical address of the next-level table (EntryTable)
	// or of the mapped page (EntryLeaf).
	Addr mm.PAddr

	// Perms and Attr are only meaningful for EntryLeaf.
	Perms mm.Permissions
	Attr  MemAttr
}

// Valid returns true if the hardware would use the entry for translation.
func (e Entry) Valid() bool {
	return e.Kind == EntryTable || e.Kind == EntryLeaf
}
