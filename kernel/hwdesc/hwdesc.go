// Package hwdesc defines the view of the platform hardware description
// (usually a flattened device tree handed over by the bootloader) that the
// memory and interrupt subsystems consume. Parsing the raw description is
// the job of board bring-up code; this package only describes the queries
// the kernel core needs and offers an in-memory implementation.
package hwdesc

import "gokern/kernel/mm"

// Node describes a single device found in the hardware description.
type Node struct {
	// Name is the node name, e.g. "interrupt-controller@8000000".
	Name string

	// Compatible lists the compatible strings of the node, most
	// specific first.
	Compatible []string

	// Regs holds the MMIO windows claimed by the device.
	Regs []mm.AddressRange

	// Interrupts holds the raw interrupt specifiers of the device.
	Interrupts []uint32

	// Props holds integer-valued properties such as "riscv,ndev".
	Props map[string]uint64
}

// Prop returns the value of an integer property.
func (n *Node) Prop(name string) (uint64, bool) {
	v, ok := n.Props[name]
	return v, ok
}

// IsCompatible returns true if compat appears in the node's compatible
// list.
func (n *Node) IsCompatible(compat string) bool {
	for _, c := range n.Compatible {
		if c == compat {
			return true
		}
	}
	return false
}

// Description is implemented by hardware description providers.
type Description interface {
	// VisitMemRegions invokes visitor for each installed RAM region in
	// ascending address order. Iteration stops if visitor returns false.
	VisitMemRegions(visitor func(mm.AddressRange) bool)

	// VisitReservedRegions invokes visitor for each region of RAM that
	// must never be handed out by the allocator, in ascending address
	// order.
	VisitReservedRegions(visitor func(mm.AddressRange) bool)

	// FindCompatible returns the first node whose compatible list
	// contains compat.
	FindCompatible(compat string) (*Node, bool)
}
