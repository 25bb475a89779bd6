package vmm

import (
	"gokern/device"
	"gokern/kernel"
	"gokern/kernel/hwdesc"
	"gokern/kernel/kfmt"
	"gokern/kernel/mm"
)

// Footprint is implemented by frame allocators that can report the pages
// they have already claimed. The address space builder maps those pages
// without allocating.
type Footprint interface {
	FrameSource

	// VisitMetadataPages visits the pages holding allocator state.
	VisitMetadataPages(visitor func(mm.PAddr) bool)

	// VisitAllocatedPages visits every page allocated so far.
	VisitAllocatedPages(visitor func(mm.PAddr) bool)
}

// KernelSpaceConfig holds the inputs of BuildKernelSpace.
type KernelSpaceConfig struct {
	Scheme Scheme

	// Desc reports the installed RAM.
	Desc hwdesc.Description

	// Allocator supplies table pages and reports its own footprint.
	Allocator Footprint

	// KernelImage is the physical range occupied by the loaded kernel.
	KernelImage mm.AddressRange

	// Drivers lists the devices whose MMIO windows must be mapped.
	Drivers []device.Mapped
}

// BuildKernelSpace creates the kernel page table, identity-maps the
// kernel, the allocator state and all driver windows and loads it into the
// MMU of the calling core. The steps are order-sensitive:
//
//  1. every page of installed RAM gets a reserved, invalid entry so that
//     stray accesses to described-but-unmapped memory trap predictably and
//     all tables covering RAM exist;
//  2. the kernel image is mapped read/write/execute;
//  3. the allocator metadata and every page allocated so far (including the
//     tables created by step 1) are mapped read/write without allocating;
//  4. driver windows are mapped read/write as device memory. Tables that
//     step 4 allocates are mapped by repeating step 3;
//  5. the table is activated.
func BuildKernelSpace(cfg KernelSpaceConfig) (*PageTable, *kernel.Error) {
	pt, err := New(cfg.Scheme, cfg.Allocator)
	if err != nil {
		return nil, err
	}

	cfg.Desc.VisitMemRegions(func(region mm.AddressRange) bool {
		region.VisitPages(func(page mm.PAddr) bool {
			err = pt.AddInvalidEntry(mm.IdentityVAddr(page), cfg.Allocator)
			return err == nil
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	if err = pt.IdentityMapRegion(cfg.KernelImage, mm.PermRWX, MemNormal, cfg.Allocator); err != nil {
		return nil, err
	}

	if err = mapFootprint(pt, cfg.Allocator); err != nil {
		return nil, err
	}

	var mappedDrivers int
	for _, drv := range cfg.Drivers {
		window, ok := drv.AddressRange()
		if !ok {
			continue
		}

		if err = pt.IdentityMapRegion(window, mm.PermRW, MemDevice, cfg.Allocator); err != nil {
			return nil, err
		}
		mappedDrivers++
	}

	if mappedDrivers != 0 {
		if err = mapFootprint(pt, cfg.Allocator); err != nil {
			return nil, err
		}
	}

	kfmt.Printf("[vmm] kernel space ready (%s): root table at 0x%x, %d driver windows\n",
		cfg.Scheme.Name(), uintptr(pt.Root()), mappedDrivers)

	activateFn(pt)
	return pt, nil
}

// activateFn is used by tests and is automatically inlined by the compiler.
var activateFn = (*PageTable).Activate

// mapFootprint identity-maps the allocator metadata and every allocated
// page without allocating new tables.
func mapFootprint(pt *PageTable, alloc Footprint) *kernel.Error {
	var err *kernel.Error
	mapPage := func(page mm.PAddr) bool {
		_, err = pt.Map(mm.IdentityVAddr(page), page, mm.PermRW, nil)
		return err == nil
	}

	alloc.VisitMetadataPages(mapPage)
	if err != nil {
		return err
	}

	alloc.VisitAllocatedPages(mapPage)
	return err
}
