package vmm

import "gokern/kernel/mm"

// ARMv8 descriptor bits for the 4 KiB translation granule.
const (
	armValid     = uint64(1 << 0)
	armTableOrPg = uint64(1 << 1) // table at levels 0-2, page at level 3
	armAttrShift = 2
	armAttrMask  = uint64(7 << armAttrShift)
	armAPUser    = uint64(1 << 6) // AP[1]: accessible from EL0
	armAPRO      = uint64(1 << 7) // AP[2]: read-only
	armSHInner   = uint64(3 << 8)
	armAF        = uint64(1 << 10)
	armPXN       = uint64(1 << 53)
	armUXN       = uint64(1 << 54)

	// armReserved is a software-defined bit (bits 58:55 are ignored by
	// the MMU) used to tag invalid entries installed by AddInvalidEntry.
	armReserved = uint64(1 << 55)

	armAddrMask = uint64(((1 << 48) - 1) &^ ((1 << 12) - 1))

	// MAIR_EL1 slots. Attr0 is normal write-back memory and Attr1 is
	// Device-nGnRE memory.
	armAttrNormal = 0
	armAttrDevice = 1
	armMAIR       = uint64(0xff | 0x04<<8)

	// TCR_EL1: 48-bit TTBR0 region (T0SZ=16), write-back cacheable inner
	// shareable walks, 4K granule, TTBR1 walks disabled, 48-bit IPS.
	armTCR = uint64(16 | 1<<8 | 1<<10 | 3<<12 | 0<<14 | 1<<23 | 5<<32)

	// SCTLR_EL1 MMU, data cache and instruction cache enable bits.
	armSCTLRM = uint64(1 << 0)
	armSCTLRC = uint64(1 << 2)
	armSCTLRI = uint64(1 << 12)

	armVABits = 48
)

var armLevelShifts = [4]uint{39, 30, 21, 12}

// ARMv8 is the 4-level, 4 KiB granule VMSAv8-64 stage 1 translation format
// with 48-bit virtual and output addresses.
type ARMv8 struct{}

// Name implements Scheme.
func (ARMv8) Name() string { return "ARMv8-A 4K granule, 4 levels" }

// Levels implements Scheme.
func (ARMv8) Levels() int { return len(armLevelShifts) }

func (ARMv8) index(va mm.VAddr, level int) uintptr {
	return (uintptr(va) >> armLevelShifts[level]) & indexMask
}

// validVAddr accepts addresses whose bits 63:47 are all equal, i.e. both
// the lower (TTBR0) and upper (TTBR1) canonical halves. Upper-half
// addresses index the table with their low 48 bits.
func (ARMv8) validVAddr(va mm.VAddr) bool {
	return canonical(uint64(va), armVABits)
}

func (ARMv8) validPAddr(pa mm.PAddr) bool {
	return uint64(pa)&^armAddrMask == 0
}

func (ARMv8) encodeTable(pa mm.PAddr) uint64 {
	return uint64(pa)&armAddrMask | armTableOrPg | armValid
}

func (ARMv8) encodeLeaf(pa mm.PAddr, perms mm.Permissions, attr MemAttr) uint64 {
	raw := uint64(pa)&armAddrMask | armTableOrPg | armValid | armAF | armSHInner

	if attr == MemDevice {
		raw |= armAttrDevice << armAttrShift
	} else {
		raw |= armAttrNormal << armAttrShift
	}

	// AP[2:1]: 00 kernel RW, 01 user RW, 10 kernel RO, 11 user RO.
	if perms.Has(mm.PermUser) {
		raw |= armAPUser
	}
	if !perms.Has(mm.PermWrite) {
		raw |= armAPRO
	}

	// The kernel never executes user pages and user code never executes
	// kernel pages.
	switch {
	case !perms.Has(mm.PermExecute):
		raw |= armPXN | armUXN
	case perms.Has(mm.PermUser):
		raw |= armPXN
	default:
		raw |= armUXN
	}

	return raw
}

func (ARMv8) encodeReserved() uint64 {
	return armReserved
}

func (s ARMv8) decode(raw uint64, level int) Entry {
	if raw&armValid == 0 {
		if raw&armReserved != 0 && level == s.Levels()-1 {
			return Entry{Kind: EntryReserved}
		}
		return Entry{Kind: EntryAbsent}
	}

	addr := mm.PAddr(raw & armAddrMask)
	if level < s.Levels()-1 && raw&armTableOrPg != 0 {
		return Entry{Kind: EntryTable, Addr: addr}
	}

	// Level 3 entries with bit 1 clear are reserved encodings and are
	// treated as faulting by the MMU.
	if level == s.Levels()-1 && raw&armTableOrPg == 0 {
		return Entry{Kind: EntryAbsent}
	}

	perms := mm.PermRead
	if raw&armAPRO == 0 {
		perms |= mm.PermWrite
	}

	user := raw&armAPUser != 0
	if user {
		perms |= mm.PermUser
		if raw&armUXN == 0 {
			perms |= mm.PermExecute
		}
	} else if raw&armPXN == 0 {
		perms |= mm.PermExecute
	}

	attr := MemNormal
	if (raw&armAttrMask)>>armAttrShift == armAttrDevice {
		attr = MemDevice
	}

	return Entry{Kind: EntryLeaf, Addr: addr, Perms: perms, Attr: attr}
}

func (ARMv8) activate(root mm.PAddr) {
	armWriteMAIRFn(armMAIR)
	armWriteTCRFn(armTCR)
	armWriteTTBR0Fn(uint64(root) & armAddrMask)

	// Make the table contents and register writes visible to the
	// walker before turning translation on.
	armDataSyncBarrierFn()
	armInvalidateTLBAllFn()
	armDataSyncBarrierFn()
	armInstructionSyncBarrierFn()

	armWriteSCTLRFn(armReadSCTLRFn() | armSCTLRM | armSCTLRC | armSCTLRI)
	armInstructionSyncBarrierFn()
}

func (ARMv8) flushTLB(mm.VAddr) {
	armDataSyncBarrierFn()
	armInvalidateTLBAllFn()
	armDataSyncBarrierFn()
	armInstructionSyncBarrierFn()
}

// canonical reports whether bits 63:(bits-1) of addr are all equal.
func canonical(addr uint64, bits uint) bool {
	top := addr >> (bits - 1)
	return top == 0 || top == (1<<(65-bits))-1
}
