// Package device defines the contract between the kernel core and device
// drivers together with a registry of driver probes.
package device

import (
	"gokern/kernel"
	"gokern/kernel/hwdesc"
	"gokern/kernel/mm"
	"io"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// Mapped is implemented by drivers whose registers live in a physical
// address window that must be identity-mapped into the kernel address
// space before the driver performs any I/O.
type Mapped interface {
	// AddressRange returns the MMIO window of the device. The second
	// return value is false if the driver does not need a mapping.
	AddressRange() (mm.AddressRange, bool)
}

// ProbeFn is a function that scans the hardware description for a
// particular piece of hardware and returns a driver for it or nil if the
// hardware is not present.
type ProbeFn func(hwdesc.Description) Driver

// DetectOrder specifies when each driver's probe function will be invoked
// by the HAL.
type DetectOrder int8

const (
	// DetectOrderEarly specifies that the driver's probe function should
	// be executed before any other driver. Interrupt controllers use this
	// order so that other drivers can rely on them.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderNormal is the default detection order.
	DetectOrderNormal DetectOrder = 0

	// DetectOrderLast specifies that the driver's probe function should
	// be executed after all other drivers.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo is used to register a driver with the driver registry.
type DriverInfo struct {
	// Order specifies at which stage of the HW detection process this
	// driver should be probed.
	Order DetectOrder

	// Probe is a function that checks whether the hardware handled by
	// this driver is present.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements
// sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var (
	// registeredDrivers contains the list of registered drivers.
	registeredDrivers DriverInfoList
)

// RegisterDriver adds the supplied driver info to the registry. Drivers
// register themselves from their package init function.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}
