package cpu

// CoreID returns the affinity-0 field of MPIDR_EL1 which identifies the
// core executing the call.
func CoreID() uint32

// Halt masks interrupts and parks the core in a WFI loop.
func Halt()

// EnableInterrupts unmasks IRQs for the current core.
func EnableInterrupts()

// DisableInterrupts masks IRQs for the current core.
func DisableInterrupts()

// WaitForInterrupt suspends the core until the next interrupt.
func WaitForInterrupt()
