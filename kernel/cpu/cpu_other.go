//go:build !arm64 && !riscv64

package cpu

// CoreID returns the id of the executing core.
func CoreID() uint32 { unsupported(); return 0 }

// Halt stops instruction execution.
func Halt() { unsupported() }

// EnableInterrupts enables interrupt handling.
func EnableInterrupts() { unsupported() }

// DisableInterrupts disables interrupt handling.
func DisableInterrupts() { unsupported() }

// WaitForInterrupt suspends the core until the next interrupt.
func WaitForInterrupt() { unsupported() }
