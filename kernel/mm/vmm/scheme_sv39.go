package vmm

import "gokern/kernel/mm"

// Sv39 page table entry bits.
const (
	sv39V = uint64(1 << 0)
	sv39R = uint64(1 << 1)
	sv39W = uint64(1 << 2)
	sv39X = uint64(1 << 3)
	sv39U = uint64(1 << 4)
	sv39A = uint64(1 << 6)
	sv39D = uint64(1 << 7)

	// sv39Reserved is the first of the two RSW bits which are left for
	// software use. It tags invalid entries installed by AddInvalidEntry.
	sv39Reserved = uint64(1 << 8)

	sv39PPNShift = 10
	sv39PPNMask  = uint64((1 << 44) - 1)

	sv39VABits = 39
	sv39PABits = 56

	// sv39SATPMode selects Sv39 translation in the MODE field of satp.
	sv39SATPMode = uint64(8 << 60)
)

var sv39LevelShifts = [3]uint{30, 21, 12}

// Sv39 is the RISC-V 3-level page table format with 39-bit virtual and
// 56-bit physical addresses.
type Sv39 struct{}

// Name implements Scheme.
func (Sv39) Name() string { return "RISC-V Sv39, 3 levels" }

// Levels implements Scheme.
func (Sv39) Levels() int { return len(sv39LevelShifts) }

func (Sv39) index(va mm.VAddr, level int) uintptr {
	return (uintptr(va) >> sv39LevelShifts[level]) & indexMask
}

// validVAddr requires bits 63:39 to be copies of bit 38.
func (Sv39) validVAddr(va mm.VAddr) bool {
	return canonical(uint64(va), sv39VABits)
}

func (Sv39) validPAddr(pa mm.PAddr) bool {
	return uint64(pa)>>sv39PABits == 0
}

func (Sv39) encodeTable(pa mm.PAddr) uint64 {
	// A valid entry with R, W and X clear points to the next level.
	return sv39PPN(pa) | sv39V
}

func (Sv39) encodeLeaf(pa mm.PAddr, perms mm.Permissions, _ MemAttr) uint64 {
	// A and D are preset so that implementations which raise a fault
	// instead of updating them in hardware never trap on kernel pages.
	raw := sv39PPN(pa) | sv39V | sv39A | sv39D

	if perms.Has(mm.PermRead) {
		raw |= sv39R
	}
	if perms.Has(mm.PermWrite) {
		// W without R is a reserved encoding.
		raw |= sv39W | sv39R
	}
	if perms.Has(mm.PermExecute) {
		raw |= sv39X
	}
	if perms.Has(mm.PermUser) {
		raw |= sv39U
	}

	return raw
}

func (Sv39) encodeReserved() uint64 {
	return sv39Reserved
}

func (s Sv39) decode(raw uint64, level int) Entry {
	last := level == s.Levels()-1

	if raw&sv39V == 0 {
		if raw&sv39Reserved != 0 && last {
			return Entry{Kind: EntryReserved}
		}
		return Entry{Kind: EntryAbsent}
	}

	addr := mm.PAddr(((raw >> sv39PPNShift) & sv39PPNMask) << mm.PageShift)
	if raw&(sv39R|sv39W|sv39X) == 0 {
		if last {
			// A pointer at the last level is invalid and faults.
			return Entry{Kind: EntryAbsent}
		}
		return Entry{Kind: EntryTable, Addr: addr}
	}

	var perms mm.Permissions
	if raw&sv39R != 0 {
		perms |= mm.PermRead
	}
	if raw&sv39W != 0 {
		perms |= mm.PermWrite
	}
	if raw&sv39X != 0 {
		perms |= mm.PermExecute
	}
	if raw&sv39U != 0 {
		perms |= mm.PermUser
	}

	return Entry{Kind: EntryLeaf, Addr: addr, Perms: perms}
}

func (Sv39) activate(root mm.PAddr) {
	rvSFenceVMAFn()
	rvWriteSATPFn(sv39SATPMode | uint64(root)>>mm.PageShift&sv39PPNMask)
	rvSFenceVMAFn()
}

func (Sv39) flushTLB(mm.VAddr) {
	rvSFenceVMAFn()
}

func sv39PPN(pa mm.PAddr) uint64 {
	return (uint64(pa.PageNumber()) & sv39PPNMask) << sv39PPNShift
}
