package mm

// PAddr is an address in the physical address space.
type PAddr uintptr

// VAddr is an address in a virtual address space. Keeping PAddr and VAddr
// as distinct types prevents a physical address from being handed to code
// that expects a virtual one (and vice-versa) without an explicit
// conversion.
type VAddr uintptr

// IdentityVAddr returns the virtual address that maps to pa under an
// identity mapping.
func IdentityVAddr(pa PAddr) VAddr {
	return VAddr(pa)
}

// PageNumber returns the index of the physical page containing pa.
func (pa PAddr) PageNumber() uintptr {
	return uintptr(pa) >> PageShift
}

// AlignDown rounds pa down to the nearest page boundary.
func (pa PAddr) AlignDown() PAddr {
	return PAddr(alignDown(uintptr(pa)))
}

// AlignUp rounds pa up to the nearest page boundary.
func (pa PAddr) AlignUp() PAddr {
	return PAddr(alignUp(uintptr(pa)))
}

// IsAligned returns true if pa falls on a page boundary.
func (pa PAddr) IsAligned() bool {
	return uintptr(pa)&(PageSize-1) == 0
}

// AlignDown rounds va down to the nearest page boundary.
func (va VAddr) AlignDown() VAddr {
	return VAddr(alignDown(uintptr(va)))
}

// AlignUp rounds va up to the nearest page boundary.
func (va VAddr) AlignUp() VAddr {
	return VAddr(alignUp(uintptr(va)))
}

// IsAligned returns true if va falls on a page boundary.
func (va VAddr) IsAligned() bool {
	return uintptr(va)&(PageSize-1) == 0
}

// PageOffset returns the offset of va within its page.
func (va VAddr) PageOffset() uintptr {
	return uintptr(va) & (PageSize - 1)
}

func alignDown(addr uintptr) uintptr {
	return addr &^ (PageSize - 1)
}

func alignUp(addr uintptr) uintptr {
	return (addr + PageSize - 1) &^ (PageSize - 1)
}
