package kmain

import (
	"gokern/kernel"
	"gokern/kernel/cpu"
	"gokern/kernel/hwdesc"
	"gokern/kernel/mm/vmm"
	"gokern/kernel/timer"
	"gokern/kernel/trap"
)

// sie bits.
const (
	sieSTIE = 1 << 5
	sieSEIE = 1 << 9
)

// defaultTimebase is the time CSR frequency of the QEMU virt machine.
const defaultTimebase = 10000000

func currentPlatform(desc hwdesc.Description) (platform, *kernel.Error) {
	return platform{
		scheme: vmm.Sv39{},
		arch:   trap.ArchRISCV,
		timer:  timer.SBI{TimebaseFreq: timebase(desc)},
		enableIRQs: func() {
			cpu.EnableSupervisorIRQs(sieSTIE | sieSEIE)
			cpu.EnableInterrupts()
		},
	}, nil
}

func timebase(desc hwdesc.Description) uint64 {
	if node, found := desc.FindCompatible("riscv"); found {
		if freq, ok := node.Prop("timebase-frequency"); ok && freq != 0 {
			return freq
		}
	}
	return defaultTimebase
}

func idle() {
	for {
		cpu.WaitForInterrupt()
	}
}
