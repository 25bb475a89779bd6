package cpu

// WriteMAIR sets the memory attribute indirection register (MAIR_EL1).
func WriteMAIR(val uint64)

// WriteTCR sets the translation control register (TCR_EL1).
func WriteTCR(val uint64)

// WriteTTBR0 sets the translation table base register for the lower
// virtual address range (TTBR0_EL1).
func WriteTTBR0(val uint64)

// ReadTTBR0 returns the contents of TTBR0_EL1.
func ReadTTBR0() uint64

// ReadSCTLR returns the contents of the system control register
// (SCTLR_EL1).
func ReadSCTLR() uint64

// WriteSCTLR sets SCTLR_EL1.
func WriteSCTLR(val uint64)

// DataSyncBarrier issues a DSB ISH instruction.
func DataSyncBarrier()

// InstructionSyncBarrier issues an ISB instruction.
func InstructionSyncBarrier()

// InvalidateTLBAll invalidates all EL1 TLB entries in the inner shareable
// domain.
func InvalidateTLBAll()

// WriteVBAR sets the exception vector base address (VBAR_EL1).
func WriteVBAR(addr uintptr)

// ReadCNTFRQ returns the frequency of the system counter in Hz.
func ReadCNTFRQ() uint64

// WriteCNTPTVAL programs the EL1 physical timer to fire after ticks
// counter increments.
func WriteCNTPTVAL(ticks uint64)

// WriteCNTPCTL sets the EL1 physical timer control register.
func WriteCNTPCTL(val uint64)
