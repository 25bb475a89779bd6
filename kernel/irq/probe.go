package irq

import (
	"gokern/device"
	"gokern/kernel/hwdesc"
)

var (
	gicCompatible  = []string{"arm,cortex-a15-gic", "arm,gic-400"}
	plicCompatible = []string{"sifive,plic-1.0.0", "riscv,plic0"}

	// plicSupervisorContext is the context of the boot hart's supervisor
	// mode on platforms that expose an M-mode and an S-mode context per
	// hart.
	plicSupervisorContext uintptr = 1
)

func probeForGICv2(desc hwdesc.Description) device.Driver {
	node := findNode(desc, gicCompatible)
	if node == nil || len(node.Regs) < 2 {
		return nil
	}
	return NewGICv2(node.Regs[0], node.Regs[1])
}

func probeForPLIC(desc hwdesc.Description) device.Driver {
	node := findNode(desc, plicCompatible)
	if node == nil || len(node.Regs) < 1 {
		return nil
	}

	// A missing source count selects the architectural maximum.
	sources, _ := node.Prop("riscv,ndev")
	return NewPLIC(node.Regs[0], Line(sources), plicSupervisorContext)
}

func findNode(desc hwdesc.Description, compatible []string) *hwdesc.Node {
	for _, compat := range compatible {
		if node, found := desc.FindCompatible(compat); found {
			return node
		}
	}
	return nil
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForGICv2,
	})
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForPLIC,
	})
}
