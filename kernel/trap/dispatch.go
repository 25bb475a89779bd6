package trap

import (
	"gokern/kernel"
	"gokern/kernel/irq"
	"gokern/kernel/kfmt"
	"gokern/kernel/timer"
	"sync/atomic"
)

var (
	errUnsupportedTrap = &kernel.Error{Module: "trap", Message: "unsupported trap"}
	errUnknownArch     = &kernel.Error{Module: "trap", Message: "dispatcher architecture not set"}
)

// Arch selects how the raw cause in a Frame is interpreted.
type Arch uint8

const (
	// ArchUnknown is the zero value; every trap is unsupported.
	ArchUnknown Arch = iota
	ArchARMv8
	ArchRISCV
)

// Controller is the part of an irq.Chip used to acknowledge interrupts.
type Controller interface {
	GetInt() (irq.Interrupt, *kernel.Error)
	ClearInt(irq.Interrupt) *kernel.Error
}

// Dispatcher turns trap frames into handler invocations. The physical
// timer is the only trap that is handled; everything else panics.
//
// A trap runs to completion before the interrupted context resumes so the
// dispatcher is never re-entered on the same core.
type Dispatcher struct {
	Arch Arch
	Chip Controller

	// Timer, if set, is re-armed with Interval ticks after every timer
	// interrupt. On RISC-V this is also what clears the interrupt.
	Timer    timer.Source
	Interval uint64

	timerHandler atomic.Pointer[func()]
}

// SetTimerHandler registers the callback invoked on every physical timer
// interrupt, replacing any previous one. It may be called while interrupts
// are being delivered. Passing nil removes the callback.
func (d *Dispatcher) SetTimerHandler(fn func()) {
	if fn == nil {
		d.timerHandler.Store(nil)
		return
	}
	d.timerHandler.Store(&fn)
}

// Classify returns the event described by frame.
func (d *Dispatcher) Classify(frame *Frame) Event {
	switch d.Arch {
	case ArchARMv8:
		return ClassifyARMv8(frame.Vector, frame.Cause)
	case ArchRISCV:
		return ClassifyRISCV(frame.Cause)
	default:
		return Event{Raw: frame.Cause}
	}
}

// Handle classifies the trap described by frame and runs its handler.
func (d *Dispatcher) Handle(frame *Frame) {
	if d.Arch == ArchUnknown {
		panic(errUnknownArch)
	}

	ev := d.Classify(frame)
	if ev.Class == Asynchronous {
		switch ev.Exception {
		case InterruptExternal:
			intr, err := d.Chip.GetInt()
			switch err {
			case nil:
				d.handleInterrupt(ev, frame, intr)
				return
			case irq.ErrNoInterrupt:
				// Spurious; the line was withdrawn before it was acknowledged.
				return
			}
			d.unsupported(ev, frame, err)
		case InterruptTimer:
			d.handleInterrupt(ev, frame, irq.PhysicalTimer)
			return
		}
	}

	d.unsupported(ev, frame, errUnsupportedTrap)
}

func (d *Dispatcher) handleInterrupt(ev Event, frame *Frame, intr irq.Interrupt) {
	if intr != irq.PhysicalTimer {
		d.unsupported(ev, frame, errUnsupportedTrap)
	}

	if fn := d.timerHandler.Load(); fn != nil {
		(*fn)()
	}

	if err := d.Chip.ClearInt(intr); err != nil {
		d.unsupported(ev, frame, err)
	}

	if d.Timer != nil && d.Interval != 0 {
		d.Timer.Arm(d.Interval)
	}
}

func (d *Dispatcher) unsupported(ev Event, frame *Frame, err *kernel.Error) {
	kfmt.Printf("\n[trap] unsupported %s: %s (cause 0x%x)\n", ev.Class.String(), ev.Exception.String(), ev.Raw)
	kfmt.Printf("\nRegisters:\n")
	frame.DumpTo(kfmt.GetOutputSink())
	panic(err)
}
