package irq

import (
	"gokern/kernel"
	"gokern/kernel/kfmt"
	"gokern/kernel/mm"
	"io"
)

// GICv2 distributor register offsets.
const (
	gicdCTLR       = 0x000
	gicdTYPER      = 0x004
	gicdISENABLER  = 0x100
	gicdICENABLER  = 0x180
	gicdICPENDR    = 0x280
	gicdICACTIVER  = 0x380
	gicdIPRIORITYR = 0x400
	gicdITARGETSR  = 0x800
	gicdICFGR      = 0xc00
)

// GICv2 CPU interface register offsets.
const (
	giccCTLR = 0x00
	giccPMR  = 0x04
	giccBPR  = 0x08
	giccIAR  = 0x0c
	giccEOIR = 0x10
)

const (
	// gicSpuriousID is returned by IAR when no interrupt is pending.
	gicSpuriousID = 1023
	gicIDMask     = 0x3ff

	// gicMaxLines excludes the special INTIDs 1020-1023.
	gicMaxLines = Line(1020)

	// gicFirstSPI is the first shared peripheral interrupt; lines below
	// it are banked per core (SGIs and PPIs).
	gicFirstSPI = 32

	// gicTimerLine is PPI 14, the EL1 non-secure physical timer.
	gicTimerLine = Line(30)

	gicDefaultPriority = 0xa0
	gicBootCoreTarget  = 0x01
)

// GICv2 drives an ARM Generic Interrupt Controller v2.
type GICv2 struct {
	dist mm.AddressRange
	cpu  mm.AddressRange

	lines Line

	// lastIAR holds the raw IAR value of the most recent GetInt for each
	// named interrupt; EOIR must be written with the same value.
	lastIAR [1]uint32
}

// NewGICv2 returns a driver for a GIC whose distributor and CPU interface
// registers live in the supplied windows.
func NewGICv2(dist, cpu mm.AddressRange) *GICv2 {
	return &GICv2{dist: dist, cpu: cpu}
}

func (*GICv2) chip() {}

// DriverName implements device.Driver.
func (*GICv2) DriverName() string { return "gicv2" }

// DriverVersion implements device.Driver.
func (*GICv2) DriverVersion() (uint16, uint16, uint16) { return 0, 1, 0 }

// DriverInit implements device.Driver.
func (g *GICv2) DriverInit(w io.Writer) *kernel.Error {
	g.Init()
	kfmt.Fprintf(w, "distributor at 0x%x, cpu interface at 0x%x, %d lines\n",
		uintptr(g.dist.Start), uintptr(g.cpu.Start), uint32(g.lines))
	return nil
}

// AddressRange implements device.Mapped. The returned window spans both
// register blocks.
func (g *GICv2) AddressRange() (mm.AddressRange, bool) {
	r := g.dist
	if g.cpu.Start < r.Start {
		r.Start = g.cpu.Start
	}
	if g.cpu.End > r.End {
		r.End = g.cpu.End
	}
	return r, true
}

// Init implements Chip.
func (g *GICv2) Init() {
	g.writeDist(gicdCTLR, 0)

	g.lines = Line(g.readDist(gicdTYPER)&0x1f+1) * 32
	if g.lines > gicMaxLines {
		g.lines = gicMaxLines
	}

	for line := Line(0); line < g.lines; line += 32 {
		offset, _ := bitmask(line)
		g.writeDist(gicdICENABLER+offset, 0xffffffff)
		g.writeDist(gicdICPENDR+offset, 0xffffffff)
		g.writeDist(gicdICACTIVER+offset, 0xffffffff)
	}

	// Priority and target registers hold one byte per line.
	for line := Line(0); line < g.lines; line += 4 {
		g.writeDist(gicdIPRIORITYR+uintptr(line), gicDefaultPriority*0x01010101)
		if line >= gicFirstSPI {
			g.writeDist(gicdITARGETSR+uintptr(line), gicBootCoreTarget*0x01010101)
		}
	}

	// Two configuration bits per line; 0 selects level-sensitive. SGI
	// configuration is read-only.
	for line := Line(gicFirstSPI); line < g.lines; line += 16 {
		g.writeDist(gicdICFGR+uintptr(line/16)*4, 0)
	}

	g.writeDist(gicdCTLR, 1)

	g.writeCPU(giccPMR, 0xff)
	g.writeCPU(giccBPR, 0)
	g.writeCPU(giccCTLR, 1)
}

// Enable implements Chip. The GIC treats lower values as more urgent so
// the priority is inverted before it is programmed; it is also halved so
// that even priority 0 stays above the priority mask.
func (g *GICv2) Enable(line Line, priority uint8) *kernel.Error {
	if line >= g.lines {
		return ErrInvalidIrqLine
	}

	prioReg := gicdIPRIORITYR + uintptr(line&^3)
	shift := (line & 3) * 8
	val := g.readDist(prioReg)&^(0xff<<shift) | uint32(^priority>>1)<<shift
	g.writeDist(prioReg, val)

	offset, mask := bitmask(line)
	g.writeDist(gicdISENABLER+offset, mask)
	return nil
}

// Claim implements Chip.
func (g *GICv2) Claim() (Line, *kernel.Error) {
	iar := g.readCPU(giccIAR)
	id := Line(iar & gicIDMask)
	if id == gicSpuriousID {
		return 0, ErrNoInterrupt
	}
	return id, nil
}

// Complete implements Chip.
func (g *GICv2) Complete(line Line) *kernel.Error {
	if line >= g.lines {
		return ErrInvalidIrqLine
	}
	g.writeCPU(giccEOIR, uint32(line))
	return nil
}

// GetInt implements Chip. The timer is the only named interrupt wired
// through the GIC.
func (g *GICv2) GetInt() (Interrupt, *kernel.Error) {
	iar := g.readCPU(giccIAR)
	switch Line(iar & gicIDMask) {
	case gicSpuriousID:
		return 0, ErrNoInterrupt
	case gicTimerLine:
		g.lastIAR[PhysicalTimer] = iar
		return PhysicalTimer, nil
	default:
		// Complete unknown lines so they do not stay active forever.
		g.writeCPU(giccEOIR, iar)
		return 0, ErrInvalidIrqLine
	}
}

// ClearInt implements Chip.
func (g *GICv2) ClearInt(intr Interrupt) *kernel.Error {
	if intr != PhysicalTimer {
		return ErrInvalidIrqLine
	}
	g.writeCPU(giccEOIR, g.lastIAR[intr])
	return nil
}

// LineFor implements Chip.
func (g *GICv2) LineFor(intr Interrupt) (Line, bool) {
	if intr == PhysicalTimer {
		return gicTimerLine, true
	}
	return 0, false
}

func (g *GICv2) readDist(offset uintptr) uint32 {
	return readRegFn(uintptr(g.dist.Start) + offset)
}

func (g *GICv2) writeDist(offset uintptr, val uint32) {
	writeRegFn(uintptr(g.dist.Start)+offset, val)
}

func (g *GICv2) readCPU(offset uintptr) uint32 {
	return readRegFn(uintptr(g.cpu.Start) + offset)
}

func (g *GICv2) writeCPU(offset uintptr, val uint32) {
	writeRegFn(uintptr(g.cpu.Start)+offset, val)
}
