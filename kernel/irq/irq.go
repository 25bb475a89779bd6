// Package irq drives the platform interrupt controller. A kernel image
// targets exactly one controller so the Chip interface is sealed; its only
// implementations are GICv2 (distributor/CPU-interface style) and PLIC
// (claim/complete style).
package irq

import (
	"gokern/device"
	"gokern/kernel"
	"gokern/kernel/mmio"
)

// Line is a raw, chip-specific interrupt source number.
type Line uint32

// Interrupt names an interrupt source the kernel handles, independently of
// the line number it is wired to.
type Interrupt uint8

const (
	// PhysicalTimer is the per-core physical timer interrupt.
	PhysicalTimer Interrupt = iota
)

// String implements fmt.Stringer.
func (i Interrupt) String() string {
	switch i {
	case PhysicalTimer:
		return "physical timer"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidIrqLine is returned when a chip is asked to enable or
	// report a line it does not know about.
	ErrInvalidIrqLine = &kernel.Error{Module: "irq", Message: "invalid interrupt line"}

	// ErrNoInterrupt is returned by Claim and GetInt when no enabled
	// interrupt is pending.
	ErrNoInterrupt = &kernel.Error{Module: "irq", Message: "no pending interrupt"}

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	readRegFn  = mmio.Read32
	writeRegFn = mmio.Write32
	setBitsFn  = mmio.SetBits32
)

// Chip is implemented by interrupt controller drivers.
type Chip interface {
	device.Driver
	device.Mapped

	// Init masks every line, clears any pending and active state, routes
	// all lines to the boot core and enables the controller.
	Init()

	// Enable allows line to be forwarded to the boot core with the given
	// priority. Higher values mean higher priority.
	Enable(line Line, priority uint8) *kernel.Error

	// Claim acknowledges the highest priority pending line and returns
	// it. It returns ErrNoInterrupt if nothing is pending.
	Claim() (Line, *kernel.Error)

	// Complete signals the end of servicing a claimed line, making the
	// line eligible to be claimed again.
	Complete(line Line) *kernel.Error

	// GetInt claims the pending interrupt and translates it to an
	// Interrupt. Lines that do not correspond to a named interrupt
	// yield ErrInvalidIrqLine.
	GetInt() (Interrupt, *kernel.Error)

	// ClearInt acknowledges an interrupt previously returned by GetInt.
	ClearInt(intr Interrupt) *kernel.Error

	// LineFor returns the line an interrupt is wired to on this chip.
	// Core-local interrupts that bypass the chip report false.
	LineFor(intr Interrupt) (Line, bool)

	chip()
}

// bitmask returns the 32-bit register offset (relative to the first
// register of a bank) and bit mask for line in a one-bit-per-line bank.
func bitmask(line Line) (uintptr, uint32) {
	return uintptr(line/32) * 4, uint32(1) << (line % 32)
}
