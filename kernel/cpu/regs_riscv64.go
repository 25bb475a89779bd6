package cpu

// WriteSATP sets the supervisor address translation and protection
// register.
func WriteSATP(val uint64)

// ReadSATP returns the contents of the satp register.
func ReadSATP() uint64

// SFenceVMA flushes all address-translation caches of the current hart.
func SFenceVMA()

// WriteSTVEC sets the supervisor trap vector base address.
func WriteSTVEC(addr uintptr)

// EnableSupervisorIRQs sets the sie bits in mask (STIE, SEIE, SSIE).
func EnableSupervisorIRQs(mask uint64)

// ReadTime returns the value of the time CSR.
func ReadTime() uint64

// SBISetTimer asks the SBI firmware to raise a supervisor timer interrupt
// once the time CSR reaches stime. Calling it also clears a pending timer
// interrupt.
func SBISetTimer(stime uint64)
