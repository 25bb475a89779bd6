package cpu

// CoreID returns the id of the hart executing the call. The boot code
// stores the hart id handed over by the SBI firmware in the tp register
// before jumping into Go code.
func CoreID() uint32

// Halt masks supervisor interrupts and parks the hart in a WFI loop.
func Halt()

// EnableInterrupts sets sstatus.SIE.
func EnableInterrupts()

// DisableInterrupts clears sstatus.SIE.
func DisableInterrupts()

// WaitForInterrupt suspends the hart until the next interrupt.
func WaitForInterrupt()
