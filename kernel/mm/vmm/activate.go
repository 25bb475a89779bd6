package vmm

import (
	"gokern/kernel"
	"gokern/kernel/cpu"
	"sync/atomic"
)

var (
	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	coreIDFn = cpu.CoreID

	armWriteMAIRFn              = cpu.WriteMAIR
	armWriteTCRFn               = cpu.WriteTCR
	armWriteTTBR0Fn             = cpu.WriteTTBR0
	armReadSCTLRFn              = cpu.ReadSCTLR
	armWriteSCTLRFn             = cpu.WriteSCTLR
	armDataSyncBarrierFn        = cpu.DataSyncBarrier
	armInstructionSyncBarrierFn = cpu.InstructionSyncBarrier
	armInvalidateTLBAllFn       = cpu.InvalidateTLBAll

	rvWriteSATPFn = cpu.WriteSATP
	rvSFenceVMAFn = cpu.SFenceVMA

	// activeCores has bit n set once core n has enabled translation.
	activeCores atomic.Uint64

	// ErrAlreadyActive is raised (through a panic) when a core attempts to
	// load a page table after translation has already been enabled.
	ErrAlreadyActive = &kernel.Error{Module: "vmm", Message: "translation is already enabled on this core"}
)

// Activate loads pt into the MMU of the calling core and enables address
// translation. The MMU registers are programmed exactly once per core;
// calling Activate again on the same core is a programming error and
// panics with ErrAlreadyActive.
func (pt *PageTable) Activate() {
	bit := uint64(1) << (coreIDFn() & 63)
	for {
		cores := activeCores.Load()
		if cores&bit != 0 {
			panic(ErrAlreadyActive)
		}
		if activeCores.CompareAndSwap(cores, cores|bit) {
			break
		}
	}

	pt.scheme.activate(pt.root)
	pt.active = true
}
