// Package trap classifies hardware exceptions and interrupts and routes the
// supported ones to their handlers.
package trap

import (
	"gokern/kernel/kfmt"
	"io"
)

// Frame contains a snapshot of the interrupted context. It is built on the
// trap stack by the architecture-specific vector code, and changes made by
// a handler to PC or Status are written back before returning.
type Frame struct {
	// Regs holds general purpose register xN at index N. On ARMv8 slot 31
	// is unused; on RISC-V slot 0 always reads as zero.
	Regs [32]uint64

	// SP is the stack pointer at the time of the trap.
	SP uint64

	// PC is the return address (ELR_EL1 or sepc).
	PC uint64

	// Status is the saved processor state (SPSR_EL1 or sstatus).
	Status uint64

	// Cause is the raw cause code (ESR_EL1 or scause).
	Cause uint64

	// Fault is the faulting address, if any (FAR_EL1 or stval).
	Fault uint64

	// Vector is the ARMv8 vector table slot (0-15) that was taken.
	Vector uint64
}

// DumpTo outputs the frame contents to w.
func (f *Frame) DumpTo(w io.Writer) {
	for i := 0; i < len(f.Regs); i += 2 {
		kfmt.Fprintf(w, "x%d = %16x x%d = %16x\n", i, f.Regs[i], i+1, f.Regs[i+1])
	}
	kfmt.Fprintf(w, "sp = %16x pc = %16x\n", f.SP, f.PC)
	kfmt.Fprintf(w, "status = %16x cause = %16x\n", f.Status, f.Cause)
	kfmt.Fprintf(w, "fault = %16x vector = %d\n", f.Fault, f.Vector)
}
