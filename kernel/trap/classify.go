package trap

// Class separates exceptions caused by the instruction stream from
// interrupts raised by devices.
type Class uint8

const (
	// Synchronous traps are caused by the executing instruction.
	Synchronous Class = iota

	// Asynchronous traps are interrupts.
	Asynchronous
)

// String implements fmt.Stringer for Class.
func (c Class) String() string {
	if c == Asynchronous {
		return "interrupt"
	}
	return "exception"
}

// Exception is the portable name of a trap cause.
type Exception uint8

const (
	// ExceptionUnknown is any cause without a portable name.
	ExceptionUnknown Exception = iota

	// InterruptExternal is an interrupt routed through the interrupt chip
	// (IRQ on ARMv8, supervisor external interrupt on RISC-V).
	InterruptExternal

	// InterruptFast is an ARMv8 FIQ.
	InterruptFast

	// InterruptTimer is the RISC-V supervisor timer interrupt which is
	// delivered to the hart without going through the PLIC.
	InterruptTimer

	// InterruptSoftware is a RISC-V supervisor software interrupt.
	InterruptSoftware

	// SystemError is an ARMv8 SError.
	SystemError

	// SystemCall is raised by SVC or ECALL.
	SystemCall

	// InstructionAbort is a translation, permission or access fault while
	// fetching an instruction.
	InstructionAbort

	// DataAbort is a translation, permission or access fault on a load or
	// store.
	DataAbort

	// Breakpoint is raised by a breakpoint instruction or debug event.
	Breakpoint

	// IllegalInstruction is raised by an undefined instruction or an
	// illegal execution state.
	IllegalInstruction

	// Misaligned is raised by a misaligned PC, SP or data access.
	Misaligned
)

var exceptionNames = [...]string{
	ExceptionUnknown:   "unknown",
	InterruptExternal:  "external interrupt",
	InterruptFast:      "fast interrupt",
	InterruptTimer:     "timer interrupt",
	InterruptSoftware:  "software interrupt",
	SystemError:        "system error",
	SystemCall:         "system call",
	InstructionAbort:   "instruction abort",
	DataAbort:          "data abort",
	Breakpoint:         "breakpoint",
	IllegalInstruction: "illegal instruction",
	Misaligned:         "misaligned access",
}

// String implements fmt.Stringer for Exception.
func (e Exception) String() string {
	if int(e) < len(exceptionNames) {
		return exceptionNames[e]
	}
	return "unknown"
}

// Event is a classified trap.
type Event struct {
	Class     Class
	Exception Exception

	// Raw is the architecture-specific cause: ESR_EL1 for ARMv8
	// synchronous exceptions, the vector slot for ARMv8 interrupts and
	// scause on RISC-V.
	Raw uint64
}

// ARMv8 vector table layout: four groups (current EL with SP0, current EL
// with SPx, lower EL AArch64, lower EL AArch32) of four entries each.
const (
	armVectorSync = iota
	armVectorIRQ
	armVectorFIQ
	armVectorSError
)

// ESR_EL1 exception classes.
const (
	armECUnknown          = 0x00
	armECIllegalState     = 0x0e
	armECSVC32            = 0x11
	armECSVC64            = 0x15
	armECInstrAbortLower  = 0x20
	armECInstrAbortSame   = 0x21
	armECPCAlignment      = 0x22
	armECDataAbortLower   = 0x24
	armECDataAbortSame    = 0x25
	armECSPAlignment      = 0x26
	armECBreakpointLower  = 0x30
	armECBRK64            = 0x3c
	armECSyndromeShift    = 26
	armECSyndromeMask     = 0x3f
	armVectorSlotsPerKind = 4
)

// ClassifyARMv8 classifies a trap taken through the given vector table slot
// with the given exception syndrome.
func ClassifyARMv8(vector, esr uint64) Event {
	switch vector % armVectorSlotsPerKind {
	case armVectorIRQ:
		return Event{Class: Asynchronous, Exception: InterruptExternal, Raw: vector}
	case armVectorFIQ:
		return Event{Class: Asynchronous, Exception: InterruptFast, Raw: vector}
	case armVectorSError:
		return Event{Class: Asynchronous, Exception: SystemError, Raw: vector}
	}

	ev := Event{Class: Synchronous, Raw: esr}
	switch ec := (esr >> armECSyndromeShift) & armECSyndromeMask; {
	case ec == armECIllegalState:
		ev.Exception = IllegalInstruction
	case ec == armECSVC32 || ec == armECSVC64:
		ev.Exception = SystemCall
	case ec == armECInstrAbortLower || ec == armECInstrAbortSame:
		ev.Exception = InstructionAbort
	case ec == armECDataAbortLower || ec == armECDataAbortSame:
		ev.Exception = DataAbort
	case ec == armECPCAlignment || ec == armECSPAlignment:
		ev.Exception = Misaligned
	case ec >= armECBreakpointLower && ec <= armECBRK64:
		ev.Exception = Breakpoint
	}
	return ev
}

const riscvInterruptBit = 1 << 63

var (
	riscvInterrupts = [...]Exception{
		1: InterruptSoftware,
		5: InterruptTimer,
		9: InterruptExternal,
	}

	riscvExceptions = [...]Exception{
		0:  Misaligned,
		1:  InstructionAbort,
		2:  IllegalInstruction,
		3:  Breakpoint,
		4:  Misaligned,
		5:  DataAbort,
		6:  Misaligned,
		7:  DataAbort,
		8:  SystemCall,
		9:  SystemCall,
		11: SystemCall,
		12: InstructionAbort,
		13: DataAbort,
		15: DataAbort,
	}
)

// ClassifyRISCV classifies a trap with the given scause value.
func ClassifyRISCV(scause uint64) Event {
	ev := Event{Class: Synchronous, Raw: scause}
	code := scause &^ riscvInterruptBit
	if scause&riscvInterruptBit != 0 {
		ev.Class = Asynchronous
		if code < uint64(len(riscvInterrupts)) {
			ev.Exception = riscvInterrupts[code]
		}
	} else if code < uint64(len(riscvExceptions)) {
		ev.Exception = riscvExceptions[code]
	}
	return ev
}
