package irq

import (
	"gokern/kernel/mm"
	"gokern/kernel/mmio"
	"testing"
)

// regBlock simulates a block of memory-mapped device registers.
type regBlock interface {
	read(offset uintptr) uint32
	write(offset uintptr, val uint32)
}

type busWindow struct {
	window mm.AddressRange
	block  regBlock
}

// testBus routes register accesses issued by the drivers to simulated
// devices.
type testBus struct {
	t        *testing.T
	windows  []busWindow
	accesses int
}

// installBus redirects readRegFn and writeRegFn to a new bus. The returned
// function restores the real accessors.
func installBus(t *testing.T) (*testBus, func()) {
	bus := &testBus{t: t}
	readRegFn = bus.read
	writeRegFn = bus.write
	setBitsFn = func(addr uintptr, mask uint32) { bus.write(addr, bus.read(addr)|mask) }

	return bus, func() {
		readRegFn = mmio.Read32
		writeRegFn = mmio.Write32
		setBitsFn = mmio.SetBits32
	}
}

func (b *testBus) attach(window mm.AddressRange, block regBlock) {
	b.windows = append(b.windows, busWindow{window: window, block: block})
}

func (b *testBus) lookup(addr uintptr) (regBlock, uintptr) {
	for _, w := range b.windows {
		if w.window.Contains(mm.PAddr(addr)) {
			return w.block, addr - uintptr(w.window.Start)
		}
	}
	b.t.Errorf("register access to unmapped address 0x%x", addr)
	return nil, 0
}

func (b *testBus) read(addr uintptr) uint32 {
	b.accesses++
	if addr&3 != 0 {
		b.t.Errorf("misaligned register read at 0x%x", addr)
	}
	if block, offset := b.lookup(addr); block != nil {
		return block.read(offset)
	}
	return 0
}

func (b *testBus) write(addr uintptr, val uint32) {
	b.accesses++
	if addr&3 != 0 {
		b.t.Errorf("misaligned register write at 0x%x", addr)
	}
	if block, offset := b.lookup(addr); block != nil {
		block.write(offset, val)
	}
}

// gicModel simulates the subset of a GICv2 used by the driver. Lines become
// pending through trigger; acknowledging a line through IAR makes it
// active until its id is written to EOIR.
type gicModel struct {
	lines int

	distCtlr, cpuCtlr, pmr, bpr uint32

	enabled, pending, active []bool
	priority, target         []uint8
	cfg                      []uint32

	eoi []uint32
}

func newGICModel(lines int) *gicModel {
	return &gicModel{
		lines:    lines,
		enabled:  make([]bool, lines),
		pending:  make([]bool, lines),
		active:   make([]bool, lines),
		priority: make([]uint8, lines),
		target:   make([]uint8, lines),
		cfg:      make([]uint32, lines/16),
	}
}

func (m *gicModel) trigger(line int) { m.pending[line] = true }

// gicDist and gicCPU expose the two register blocks of the model.
type gicDist struct{ *gicModel }
type gicCPU struct{ *gicModel }

func (m gicDist) bits(offset, base uintptr) (first int, ok bool) {
	if offset < base || offset >= base+uintptr(m.lines/8) {
		return 0, false
	}
	return int(offset-base) * 8, true
}

func (m gicDist) read(offset uintptr) uint32 {
	switch {
	case offset == gicdCTLR:
		return m.distCtlr
	case offset == gicdTYPER:
		return uint32(m.lines/32 - 1)
	case offset >= gicdISENABLER && offset < gicdICENABLER:
		first, _ := m.bits(offset, gicdISENABLER)
		var val uint32
		for i := 0; i < 32; i++ {
			if m.enabled[first+i] {
				val |= 1 << i
			}
		}
		return val
	case offset >= gicdIPRIORITYR && offset < gicdIPRIORITYR+uintptr(m.lines):
		line := int(offset - gicdIPRIORITYR)
		return uint32(m.priority[line]) | uint32(m.priority[line+1])<<8 | uint32(m.priority[line+2])<<16 | uint32(m.priority[line+3])<<24
	case offset >= gicdITARGETSR && offset < gicdITARGETSR+uintptr(m.lines):
		line := int(offset - gicdITARGETSR)
		return uint32(m.target[line]) | uint32(m.target[line+1])<<8 | uint32(m.target[line+2])<<16 | uint32(m.target[line+3])<<24
	case offset >= gicdICFGR && offset < gicdICFGR+uintptr(len(m.cfg))*4:
		return m.cfg[(offset-gicdICFGR)/4]
	}
	return 0
}

func (m gicDist) write(offset uintptr, val uint32) {
	setBits := func(base uintptr, state []bool, to bool) {
		first, ok := m.bits(offset, base)
		if !ok {
			return
		}
		for i := 0; i < 32; i++ {
			if val&(1<<i) != 0 {
				state[first+i] = to
			}
		}
	}

	switch {
	case offset == gicdCTLR:
		m.distCtlr = val
	case offset >= gicdISENABLER && offset < gicdICENABLER:
		setBits(gicdISENABLER, m.enabled, true)
	case offset >= gicdICENABLER && offset < gicdICENABLER+0x80:
		setBits(gicdICENABLER, m.enabled, false)
	case offset >= gicdICPENDR && offset < gicdICPENDR+0x80:
		setBits(gicdICPENDR, m.pending, false)
	case offset >= gicdICACTIVER && offset < gicdICACTIVER+0x80:
		setBits(gicdICACTIVER, m.active, false)
	case offset >= gicdIPRIORITYR && offset < gicdIPRIORITYR+uintptr(m.lines):
		line := int(offset - gicdIPRIORITYR)
		for i := 0; i < 4; i++ {
			m.priority[line+i] = uint8(val >> (8 * i))
		}
	case offset >= gicdITARGETSR && offset < gicdITARGETSR+uintptr(m.lines):
		line := int(offset - gicdITARGETSR)
		for i := 0; i < 4; i++ {
			m.target[line+i] = uint8(val >> (8 * i))
		}
	case offset >= gicdICFGR && offset < gicdICFGR+uintptr(len(m.cfg))*4:
		m.cfg[(offset-gicdICFGR)/4] = val
	}
}

func (m gicCPU) read(offset uintptr) uint32 {
	switch offset {
	case giccCTLR:
		return m.cpuCtlr
	case giccPMR:
		return m.pmr
	case giccBPR:
		return m.bpr
	case giccIAR:
		return m.acknowledge()
	}
	return 0
}

func (m gicCPU) write(offset uintptr, val uint32) {
	switch offset {
	case giccCTLR:
		m.cpuCtlr = val
	case giccPMR:
		m.pmr = val
	case giccBPR:
		m.bpr = val
	case giccEOIR:
		m.eoi = append(m.eoi, val)
		if id := int(val & gicIDMask); id < m.lines {
			m.active[id] = false
		}
	}
}

// acknowledge returns the highest priority (lowest value) pending line,
// preferring lower ids on ties, and marks it active.
func (m *gicModel) acknowledge() uint32 {
	if m.distCtlr&1 == 0 || m.cpuCtlr&1 == 0 {
		return gicSpuriousID
	}

	best := -1
	for line := 0; line < m.lines; line++ {
		if !m.enabled[line] || !m.pending[line] || m.active[line] || uint32(m.priority[line]) >= m.pmr {
			continue
		}
		if best == -1 || m.priority[line] < m.priority[best] {
			best = line
		}
	}

	if best == -1 {
		return gicSpuriousID
	}

	m.pending[best] = false
	m.active[best] = true
	return uint32(best)
}

// maxModelClaims bounds the number of claims a plicModel answers.
const maxModelClaims = 4 * plicMaxSources

// plicModel simulates a PLIC with a single target context.
type plicModel struct {
	sources int
	context uintptr

	priority  []uint32
	pending   []bool
	enabled   []bool
	inService []bool
	threshold uint32

	// priorityMask holds the implemented priority bits.
	priorityMask uint32

	// asserted sources are level-triggered devices that keep their line
	// raised; the gateway forwards a new request after each completion.
	asserted []bool

	claims int
}

func newPLICModel(sources int, context uintptr) *plicModel {
	return &plicModel{
		sources:   sources,
		context:   context,
		priority:  make([]uint32, sources+1),
		pending:   make([]bool, sources+1),
		enabled:   make([]bool, sources+1),
		inService: make([]bool, sources+1),
		asserted:  make([]bool, sources+1),

		priorityMask: 0xffffffff,
	}
}

func (m *plicModel) trigger(line int) { m.pending[line] = true }

func (m *plicModel) enableBase() uintptr { return plicEnableBase + m.context*plicEnableStride }
func (m *plicModel) ctxBase() uintptr    { return plicContextBase + m.context*plicContextStride }

func (m *plicModel) read(offset uintptr) uint32 {
	switch {
	case offset < plicPendingBase:
		if src := int(offset / 4); src <= m.sources {
			return m.priority[src]
		}
	case offset < plicEnableBase:
		return packBits(m.pending, int(offset-plicPendingBase)*8)
	case offset >= m.enableBase() && offset < m.enableBase()+plicEnableStride:
		return packBits(m.enabled, int(offset-m.enableBase())*8)
	case offset == m.ctxBase()+plicThreshold:
		return m.threshold
	case offset == m.ctxBase()+plicClaim:
		return m.claim()
	}
	return 0
}

func (m *plicModel) write(offset uintptr, val uint32) {
	switch {
	case offset < plicPendingBase:
		if src := int(offset / 4); src <= m.sources {
			m.priority[src] = val & m.priorityMask
		}
	case offset >= m.enableBase() && offset < m.enableBase()+plicEnableStride:
		first := int(offset-m.enableBase()) * 8
		for i := 0; i < 32 && first+i <= m.sources; i++ {
			m.enabled[first+i] = val&(1<<i) != 0
		}
	case offset == m.ctxBase()+plicThreshold:
		m.threshold = val
	case offset == m.ctxBase()+plicClaim:
		// Completions for sources that are not enabled are ignored.
		if src := int(val); src <= m.sources && m.enabled[src] && m.inService[src] {
			m.inService[src] = false
			if m.asserted[src] {
				m.pending[src] = true
			}
		}
	}
}

func (m *plicModel) claim() uint32 {
	m.claims++
	if m.claims > maxModelClaims {
		// Keep a driver that never stops claiming from hanging the test.
		return 0
	}

	best := 0
	for src := 1; src <= m.sources; src++ {
		if !m.pending[src] || !m.enabled[src] || m.inService[src] || m.priority[src] <= m.threshold {
			continue
		}
		if best == 0 || m.priority[src] > m.priority[best] {
			best = src
		}
	}

	if best != 0 {
		m.pending[best] = false
		m.inService[best] = true
	}
	return uint32(best)
}

func packBits(state []bool, first int) uint32 {
	var val uint32
	for i := 0; i < 32 && first+i < len(state); i++ {
		if state[first+i] {
			val |= 1 << i
		}
	}
	return val
}
