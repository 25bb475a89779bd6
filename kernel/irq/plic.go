package irq

import (
	"gokern/kernel"
	"gokern/kernel/kfmt"
	"gokern/kernel/mm"
	"io"
)

// PLIC register layout.
const (
	plicPriorityBase  = 0x000000
	plicPendingBase   = 0x001000
	plicEnableBase    = 0x002000
	plicEnableStride  = 0x80
	plicContextBase   = 0x200000
	plicContextStride = 0x1000
	plicThreshold     = 0x0
	plicClaim         = 0x4

	// plicMaxSources is the architectural limit; source 0 does not exist.
	plicMaxSources = 1024
)

// PLIC drives a RISC-V Platform-Level Interrupt Controller. All lines are
// routed to a single hart context, normally the supervisor context of the
// boot hart.
type PLIC struct {
	regs    mm.AddressRange
	sources Line
	context uintptr

	// maxPriority is the largest value the priority registers hold.
	// Implementations may wire fewer than 32 bits; it is detected by Init.
	maxPriority uint32
}

// NewPLIC returns a driver for a PLIC with the given register window,
// number of interrupt sources and target context.
func NewPLIC(regs mm.AddressRange, sources Line, context uintptr) *PLIC {
	if sources == 0 || sources > plicMaxSources-1 {
		sources = plicMaxSources - 1
	}
	return &PLIC{regs: regs, sources: sources, context: context}
}

func (*PLIC) chip() {}

// DriverName implements device.Driver.
func (*PLIC) DriverName() string { return "plic" }

// DriverVersion implements device.Driver.
func (*PLIC) DriverVersion() (uint16, uint16, uint16) { return 0, 1, 0 }

// DriverInit implements device.Driver.
func (p *PLIC) DriverInit(w io.Writer) *kernel.Error {
	p.Init()
	kfmt.Fprintf(w, "registers at 0x%x, %d sources, context %d\n",
		uintptr(p.regs.Start), uint32(p.sources), p.context)
	return nil
}

// AddressRange implements device.Mapped.
func (p *PLIC) AddressRange() (mm.AddressRange, bool) {
	return p.regs, true
}

// Init implements Chip. PLIC sources have no trigger configuration and
// gateways accept a new request only after completion, so claiming what is
// pending and completing every enabled source discards the state left by
// the firmware. The drain is bounded because a level-triggered source that
// stays asserted is forwarded again after each completion. The enables are
// cleared last because completions for disabled sources are ignored.
func (p *PLIC) Init() {
	p.write(p.contextReg(plicThreshold), 0)

	for i := Line(0); i < p.sources; i++ {
		line := p.read(p.contextReg(plicClaim))
		if line == 0 {
			break
		}
		p.write(p.contextReg(plicClaim), line)
	}

	// Priority registers are WARL; the value read back after writing all
	// ones is the highest implemented priority.
	p.write(plicPriorityBase+4, 0xffffffff)
	p.maxPriority = p.read(plicPriorityBase + 4)

	// A source with priority zero is never forwarded.
	for line := Line(1); line <= p.sources; line++ {
		p.write(plicPriorityBase+uintptr(line)*4, 0)
	}

	for line := Line(1); line <= p.sources; line++ {
		offset, mask := bitmask(line)
		if p.read(p.enableReg()+offset)&mask != 0 {
			p.write(p.contextReg(plicClaim), uint32(line))
		}
	}

	for line := Line(0); line <= p.sources; line += 32 {
		offset, _ := bitmask(line)
		p.write(p.enableReg()+offset, 0)
	}
}

// Enable implements Chip. A priority of zero disables a PLIC source so the
// priority is offset by one. Controllers with fewer than 256 priority
// levels get the priority scaled into 1..maxPriority.
func (p *PLIC) Enable(line Line, priority uint8) *kernel.Error {
	if line == 0 || line > p.sources {
		return ErrInvalidIrqLine
	}

	p.write(plicPriorityBase+uintptr(line)*4, p.scalePriority(priority))

	offset, mask := bitmask(line)
	setBitsFn(uintptr(p.regs.Start)+p.enableReg()+offset, mask)
	return nil
}

func (p *PLIC) scalePriority(priority uint8) uint32 {
	switch {
	case p.maxPriority == 0 || p.maxPriority > 0xff:
		return uint32(priority) + 1
	case p.maxPriority == 1:
		return 1
	default:
		return 1 + uint32(priority)*(p.maxPriority-1)/0xff
	}
}

// Claim implements Chip.
func (p *PLIC) Claim() (Line, *kernel.Error) {
	line := Line(p.read(p.contextReg(plicClaim)))
	if line == 0 {
		return 0, ErrNoInterrupt
	}
	return line, nil
}

// Complete implements Chip.
func (p *PLIC) Complete(line Line) *kernel.Error {
	if line == 0 || line > p.sources {
		return ErrInvalidIrqLine
	}
	p.write(p.contextReg(plicClaim), uint32(line))
	return nil
}

// GetInt implements Chip. The supervisor timer is delivered directly to the
// hart rather than through the PLIC, so every claimed line is reported as
// ErrInvalidIrqLine after being completed to keep the source usable.
func (p *PLIC) GetInt() (Interrupt, *kernel.Error) {
	line, err := p.Claim()
	if err != nil {
		return 0, err
	}

	_ = p.Complete(line)
	return 0, ErrInvalidIrqLine
}

// ClearInt implements Chip. The timer is core-local and is acknowledged by
// re-arming it, which requires no PLIC register access.
func (p *PLIC) ClearInt(intr Interrupt) *kernel.Error {
	if intr != PhysicalTimer {
		return ErrInvalidIrqLine
	}
	return nil
}

// LineFor implements Chip.
func (p *PLIC) LineFor(Interrupt) (Line, bool) {
	return 0, false
}

func (p *PLIC) enableReg() uintptr {
	return plicEnableBase + p.context*plicEnableStride
}

func (p *PLIC) contextReg(reg uintptr) uintptr {
	return plicContextBase + p.context*plicContextStride + reg
}

func (p *PLIC) read(offset uintptr) uint32 {
	return readRegFn(uintptr(p.regs.Start) + offset)
}

func (p *PLIC) write(offset uintptr, val uint32) {
	writeRegFn(uintptr(p.regs.Start)+offset, val)
}
