package kmain

import (
	"gokern/kernel"
	"gokern/kernel/cpu"
	"gokern/kernel/hwdesc"
	"gokern/kernel/mm/vmm"
	"gokern/kernel/timer"
	"gokern/kernel/trap"
)

func currentPlatform(hwdesc.Description) (platform, *kernel.Error) {
	return platform{
		scheme:     vmm.ARMv8{},
		arch:       trap.ArchARMv8,
		timer:      timer.ARMv8Physical{},
		enableIRQs: cpu.EnableInterrupts,
	}, nil
}

func idle() {
	for {
		cpu.WaitForInterrupt()
	}
}
