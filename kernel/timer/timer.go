// Package timer drives the per-core timers that generate the periodic
// PhysicalTimer interrupt.
package timer

import "gokern/kernel/cpu"

var (
	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	readCNTFRQFn    = cpu.ReadCNTFRQ
	writeCNTPTVALFn = cpu.WriteCNTPTVAL
	writeCNTPCTLFn  = cpu.WriteCNTPCTL
	readTimeFn      = cpu.ReadTime
	sbiSetTimerFn   = cpu.SBISetTimer
)

// Source is a one-shot timer that raises an interrupt on the current core
// once the programmed deadline expires.
type Source interface {
	// Frequency returns the counter frequency in Hz.
	Frequency() uint64

	// Arm programs the timer to fire ticks counter ticks from now.
	// Re-arming an expired timer also clears its interrupt condition.
	Arm(ticks uint64)

	// Stop cancels any pending deadline.
	Stop()
}

// TicksFor converts a period in milliseconds into counter ticks of src.
func TicksFor(src Source, millis uint64) uint64 {
	return src.Frequency() / 1000 * millis
}

// CNTP_CTL_EL0 bits.
const (
	cntpEnable = 1 << 0
	cntpIMask  = 1 << 1
)

// ARMv8Physical is the EL1 physical timer of the ARMv8 generic timer.
type ARMv8Physical struct{}

// Frequency implements Source.
func (ARMv8Physical) Frequency() uint64 { return readCNTFRQFn() }

// Arm implements Source. Writing TVAL reloads the compare value relative
// to the current count.
func (ARMv8Physical) Arm(ticks uint64) {
	writeCNTPTVALFn(ticks)
	writeCNTPCTLFn(cntpEnable)
}

// Stop implements Source.
func (ARMv8Physical) Stop() {
	writeCNTPCTLFn(cntpIMask)
}

// SBI is the RISC-V supervisor timer programmed through the SBI TIME
// extension. The time CSR frequency is platform specific and must be taken
// from the hardware description.
type SBI struct {
	TimebaseFreq uint64
}

// Frequency implements Source.
func (s SBI) Frequency() uint64 { return s.TimebaseFreq }

// Arm implements Source.
func (SBI) Arm(ticks uint64) {
	sbiSetTimerFn(readTimeFn() + ticks)
}

// Stop implements Source. The SBI has no explicit cancel call; pushing the
// deadline to the end of time clears the pending bit.
func (SBI) Stop() {
	sbiSetTimerFn(^uint64(0))
}
