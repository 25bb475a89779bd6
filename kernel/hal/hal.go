// Package hal discovers the devices listed in the hardware description and
// tracks the drivers that manage them.
package hal

import (
	"bytes"
	"gokern/device"
	"gokern/kernel/hwdesc"
	"gokern/kernel/irq"
	"gokern/kernel/kfmt"
	"sort"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeChip irq.Chip

	// probedDrivers holds the detected drivers in detection order.
	probedDrivers []device.Driver

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer

	driverListFn = device.DriverList
)

// ActiveChip returns the detected interrupt controller or nil.
func ActiveChip() irq.Chip {
	return devices.activeChip
}

// ActiveDrivers returns the drivers that were successfully initialized.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers
}

// DetectHardware runs the probe function of every registered driver against
// desc in detection order. Drivers are not initialized until InitDrivers is
// called so that their register windows can be mapped first.
func DetectHardware(desc hwdesc.Description) {
	drivers := driverListFn()
	sort.Sort(drivers)

	devices = managedDevices{}
	for _, info := range drivers {
		drv := info.Probe(desc)
		if drv == nil {
			continue
		}

		// Only one interrupt controller is driven; the earliest wins.
		if chip, ok := drv.(irq.Chip); ok {
			if devices.activeChip != nil {
				continue
			}
			devices.activeChip = chip
		}

		devices.probedDrivers = append(devices.probedDrivers, drv)
	}
}

// MappedDrivers returns the detected drivers that need their register
// window mapped into the kernel address space.
func MappedDrivers() []device.Mapped {
	var mapped []device.Mapped
	for _, drv := range devices.probedDrivers {
		if m, ok := drv.(device.Mapped); ok {
			mapped = append(mapped, m)
		}
	}
	return mapped
}

// InitDrivers initializes the detected drivers. Output emitted by each
// driver is prefixed with its name and version.
func InitDrivers() {
	var w = kfmt.PrefixWriter{Sink: consoleWriter{}}

	for _, drv := range devices.probedDrivers {
		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			if drv == device.Driver(devices.activeChip) {
				devices.activeChip = nil
			}
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// consoleWriter forwards writes to the current kfmt output sink, which may
// still be the early ring buffer.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	kfmt.Fprintf(kfmt.GetOutputSink(), "%s", p)
	return len(p), nil
}
