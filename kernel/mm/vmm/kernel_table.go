package vmm

import (
	"gokern/kernel"
	"gokern/kernel/mm"
	ksync "gokern/kernel/sync"
)

var kernelTable ksync.Cell[KernelPageTable]

// KernelPageTable owns the page table that maps the kernel address space.
// It is shared by every core and by trap handlers, so all accesses go
// through a reentrant spinlock: a trap taken while the interrupted code on
// the same core holds the lock can still update the table.
type KernelPageTable struct {
	lock *ksync.ReentrantSpinlock
	pt   *PageTable
}

// SetKernelPageTable publishes pt as the kernel page table. The kernel
// page table can only be set once; later calls return false.
func SetKernelPageTable(pt *PageTable) bool {
	return kernelTable.Set(&KernelPageTable{
		lock: ksync.NewReentrantSpinlock(),
		pt:   pt,
	})
}

// Kernel returns the kernel page table or nil if SetKernelPageTable has not
// been called yet.
func Kernel() *KernelPageTable {
	return kernelTable.Get()
}

// Map installs a mapping in the kernel page table. See PageTable.Map.
func (k *KernelPageTable) Map(va mm.VAddr, pa mm.PAddr, perms mm.Permissions, src FrameSource) (Entry, *kernel.Error) {
	core := coreIDFn()
	k.lock.AcquireOn(core)
	defer k.lock.ReleaseOn(core)

	return k.pt.Map(va, pa, perms, src)
}

// Translate resolves va using the kernel page table.
func (k *KernelPageTable) Translate(va mm.VAddr) (mm.PAddr, *kernel.Error) {
	core := coreIDFn()
	k.lock.AcquireOn(core)
	defer k.lock.ReleaseOn(core)

	return k.pt.Translate(va)
}

// Do runs fn with exclusive access to the underlying page table. fn may
// call back into the KernelPageTable from the same core.
func (k *KernelPageTable) Do(fn func(*PageTable) *kernel.Error) *kernel.Error {
	core := coreIDFn()
	k.lock.AcquireOn(core)
	defer k.lock.ReleaseOn(core)

	return fn(k.pt)
}

// UserPageTable owns the page table of a user address space. Every leaf it
// installs is accessible from user mode.
type UserPageTable struct {
	pt *PageTable
}

// NewUserPageTable allocates an empty user page table.
func NewUserPageTable(scheme Scheme, src FrameSource) (*UserPageTable, *kernel.Error) {
	pt, err := New(scheme, src)
	if err != nil {
		return nil, err
	}
	return &UserPageTable{pt: pt}, nil
}

// Map installs a user-accessible mapping. See PageTable.Map.
func (u *UserPageTable) Map(va mm.VAddr, pa mm.PAddr, perms mm.Permissions, src FrameSource) (Entry, *kernel.Error) {
	return u.pt.Map(va, pa, perms|mm.PermUser, src)
}

// Lookup returns the leaf entry for va.
func (u *UserPageTable) Lookup(va mm.VAddr) Entry {
	return u.pt.Lookup(va)
}

// Root returns the physical address of the root table.
func (u *UserPageTable) Root() mm.PAddr {
	return u.pt.Root()
}
