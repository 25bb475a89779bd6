// Package kmain contains the kernel entry point that brings up memory
// management and interrupt handling.
package kmain

import (
	"gokern/kernel"
	"gokern/kernel/hal"
	"gokern/kernel/hwdesc"
	"gokern/kernel/irq"
	"gokern/kernel/kfmt"
	"gokern/kernel/mm"
	"gokern/kernel/mm/pmm"
	"gokern/kernel/mm/vmm"
	"gokern/kernel/timer"
	"gokern/kernel/trap"
	"sync/atomic"
)

// timerPriority is the priority of the timer line on chips that route it.
const timerPriority = 0x80

var (
	errKmainReturned         = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
	errNoInterruptController = &kernel.Error{Module: "kmain", Message: "no supported interrupt controller found"}
	errKernelTableSet        = &kernel.Error{Module: "kmain", Message: "kernel page table already set"}

	// ticks counts the physical timer interrupts handled so far.
	ticks atomic.Uint64

	// The following functions are mocked by tests.
	panicFn              = kfmt.Panic
	platformFn           = currentPlatform
	buildKernelSpaceFn   = vmm.BuildKernelSpace
	setKernelPageTableFn = vmm.SetKernelPageTable
	installTrapsFn       = trap.Install
	idleFn               = idle
)

// BootInfo is handed to Kmain by the board bring-up code.
type BootInfo struct {
	// Desc describes the installed RAM and devices.
	Desc hwdesc.Description

	// KernelStart and KernelEnd are the physical bounds of the loaded
	// kernel image, taken from linker symbols.
	KernelStart uintptr
	KernelEnd   uintptr

	// TimerInterval is the period of the physical timer in milliseconds.
	// The timer stays off when it is zero.
	TimerInterval uint64
}

// platform groups the architecture-specific parts of the boot sequence.
type platform struct {
	scheme vmm.Scheme
	arch   trap.Arch
	timer  timer.Source

	// enableIRQs unmasks the interrupt classes handled by the kernel on
	// the current core.
	enableIRQs func()
}

// Ticks returns the number of timer interrupts handled so far.
func Ticks() uint64 {
	return ticks.Load()
}

// Kmain is invoked by the board bring-up code once a stack is available
// and the Go runtime can run on the boot core with the MMU off.
//
// Kmain is not expected to return. If it does, the core is halted.
//
//go:noinline
func Kmain(info BootInfo) {
	kfmt.Printf("[kmain] starting gokern\n")

	plat, err := platformFn(info.Desc)
	if err != nil {
		panicFn(err)
		return
	}

	image := mm.AddressRange{Start: mm.PAddr(info.KernelStart), End: mm.PAddr(info.KernelEnd)}
	alloc, err := pmm.New(info.Desc, image)
	if err != nil {
		panicFn(err)
		return
	}

	hal.DetectHardware(info.Desc)
	chip := hal.ActiveChip()
	if chip == nil {
		panicFn(errNoInterruptController)
		return
	}

	pt, err := buildKernelSpaceFn(vmm.KernelSpaceConfig{
		Scheme:      plat.scheme,
		Desc:        info.Desc,
		Allocator:   alloc,
		KernelImage: image,
		Drivers:     hal.MappedDrivers(),
	})
	if err != nil {
		panicFn(err)
		return
	}

	if !setKernelPageTableFn(pt) {
		panicFn(errKernelTableSet)
		return
	}

	// Driver windows are mapped now; this also initializes the chip.
	hal.InitDrivers()
	alloc.PrintMemoryMap()

	dispatcher := &trap.Dispatcher{Arch: plat.arch, Chip: chip}
	dispatcher.SetTimerHandler(onTick)

	if info.TimerInterval != 0 {
		dispatcher.Timer = plat.timer
		dispatcher.Interval = timer.TicksFor(plat.timer, info.TimerInterval)

		if line, routed := chip.LineFor(irq.PhysicalTimer); routed {
			if err = chip.Enable(line, timerPriority); err != nil {
				panicFn(err)
				return
			}
		}
	}

	if err = installTrapsFn(dispatcher); err != nil {
		panicFn(err)
		return
	}

	plat.enableIRQs()
	if dispatcher.Timer != nil {
		kfmt.Printf("[kmain] timer: %d ticks every %dms\n", dispatcher.Interval, info.TimerInterval)
		dispatcher.Timer.Arm(dispatcher.Interval)
	}

	idleFn()

	// Use panicFn instead of panic to prevent the compiler from treating
	// kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}

func onTick() {
	ticks.Add(1)
}
