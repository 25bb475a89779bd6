package pmm

import (
	"bytes"
	"gokern/kernel/hwdesc"
	"gokern/kernel/kfmt"
	"gokern/kernel/mm"
	"runtime"
	"strings"
	"testing"
	"unsafe"
)

// physMem returns the page-aligned address of a block of Go memory that is
// large enough to act as pageCount pages of RAM. The returned slice must be
// kept alive for as long as the memory is in use.
func physMem(pageCount uintptr) (mm.PAddr, []byte) {
	buf := make([]byte, (pageCount+1)*mm.PageSize)
	for i := range buf {
		buf[i] = 0xaa
	}
	return mm.PAddr(uintptr(unsafe.Pointer(&buf[0]))).AlignUp(), buf
}

func pageAt(base mm.PAddr, index uintptr) mm.PAddr {
	return base + mm.PAddr(index<<mm.PageShift)
}

// testLayout describes 64 pages of RAM. Pages 0-3 hold the kernel image
// (whose end is not page-aligned) and pages 10-11 are reserved.
func testLayout() (*hwdesc.Static, mm.AddressRange, mm.PAddr, []byte) {
	base, buf := physMem(64)

	desc := new(hwdesc.Static).
		AddMemRegion(mm.NewAddressRange(base, 64*mm.PageSize)).
		AddReservedRegion(mm.NewAddressRange(pageAt(base, 10), 2*mm.PageSize))

	kernelImage := mm.AddressRange{Start: base, End: pageAt(base, 3) + 100}
	return desc, kernelImage, base, buf
}

func TestNew(t *testing.T) {
	desc, kernelImage, base, buf := testLayout()
	defer runtime.KeepAlive(buf)

	alloc, err := New(desc, kernelImage)
	if err != nil {
		t.Fatal(err)
	}

	if exp, got := mm.Size(64*sizeofPage).Pages(), alloc.metadata.PageCount(); got != exp {
		t.Fatalf("expected metadata to occupy %d pages; got %d", exp, got)
	}

	// The first free page follows the kernel image.
	if exp := pageAt(base, 4); alloc.metadata.Start != exp {
		t.Fatalf("expected metadata to be placed at 0x%x; got 0x%x", exp, alloc.metadata.Start)
	}

	for index := uintptr(0); index < 64; index++ {
		page := pageAt(base, index)
		var expKind PageKind
		switch {
		case index < 4:
			expKind = PageKernel
		case index == 10 || index == 11:
			expKind = PageReserved
		case alloc.metadata.Contains(page):
			expKind = PageMetadata
		default:
			expKind = PageFree
		}

		pp, found := alloc.PageFor(page + 42)
		if !found {
			t.Fatalf("[page %d] expected PageFor to find a record", index)
		}

		if pp.Base != page || pp.Kind != expKind {
			t.Errorf("[page %d] expected {0x%x, %s}; got {0x%x, %s}", index, page, expKind, pp.Base, pp.Kind)
		}
	}

	if _, found := alloc.PageFor(pageAt(base, 64)); found {
		t.Error("expected PageFor to fail for an address outside installed RAM")
	}

	st := alloc.Stats()
	exp := Stats{Total: 64, Kernel: 4, Reserved: 2, Metadata: alloc.metadata.PageCount()}
	exp.Free = exp.Total - exp.Kernel - exp.Reserved - exp.Metadata
	if st != exp {
		t.Fatalf("expected stats %+v; got %+v", exp, st)
	}
}

func TestNewMetadataPlacement(t *testing.T) {
	base, buf := physMem(320)
	defer runtime.KeepAlive(buf)

	// Region A has a single free page at its end; region B starts right
	// after a gap. A metadata run must not straddle the two regions even
	// though the free pages around the gap are adjacent in the page list.
	regionA := mm.NewAddressRange(base, 8*mm.PageSize)
	regionB := mm.NewAddressRange(pageAt(base, 16), 300*mm.PageSize)
	desc := new(hwdesc.Static).AddMemRegion(regionB).AddMemRegion(regionA)

	kernelImage := mm.NewAddressRange(base, 7*mm.PageSize)

	alloc, err := New(desc, kernelImage)
	if err != nil {
		t.Fatal(err)
	}

	if exp := mm.Size(308 * sizeofPage).Pages(); exp < 2 {
		t.Fatalf("test layout requires a multi-page metadata array; got %d pages", exp)
	}

	if alloc.metadata.Start != regionB.Start {
		t.Fatalf("expected metadata to be placed at the start of the second region (0x%x); got 0x%x", regionB.Start, alloc.metadata.Start)
	}

	if pp, _ := alloc.PageFor(pageAt(base, 7)); pp.Kind != PageFree {
		t.Fatalf("expected the last page of the first region to remain free; got %s", pp.Kind)
	}

	var metadataPages uintptr
	alloc.VisitMetadataPages(func(page mm.PAddr) bool {
		if !alloc.metadata.Contains(page) {
			t.Errorf("visited metadata page 0x%x outside the metadata range", page)
		}
		metadataPages++
		return true
	})

	if exp := alloc.metadata.PageCount(); metadataPages != exp {
		t.Fatalf("expected to visit %d metadata pages; got %d", exp, metadataPages)
	}

	if pp, _ := alloc.PageFor(alloc.metadata.End - 1); !pp.IsLast {
		t.Fatal("expected the last metadata page to be flagged with IsLast")
	}
}

func TestNewErrors(t *testing.T) {
	base, buf := physMem(4)
	defer runtime.KeepAlive(buf)

	specs := []struct {
		name        string
		desc        *hwdesc.Static
		kernelImage mm.AddressRange
		expErr      error
	}{
		{
			"no memory regions",
			new(hwdesc.Static),
			mm.AddressRange{},
			ErrNoMemRegions,
		},
		{
			"region smaller than a page",
			new(hwdesc.Static).AddMemRegion(mm.NewAddressRange(base+1, mm.PageSize)),
			mm.AddressRange{},
			ErrNoMemRegions,
		},
		{
			"no room for metadata",
			new(hwdesc.Static).AddMemRegion(mm.NewAddressRange(base, 4*mm.PageSize)),
			mm.NewAddressRange(base, 4*mm.PageSize),
			ErrOutOfMemory,
		},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			if _, err := New(spec.desc, spec.kernelImage); err != spec.expErr {
				t.Fatalf("expected error %v; got %v", spec.expErr, err)
			}
		})
	}
}

func TestAllocPages(t *testing.T) {
	desc, kernelImage, base, buf := testLayout()
	defer runtime.KeepAlive(buf)

	alloc, err := New(desc, kernelImage)
	if err != nil {
		t.Fatal(err)
	}

	// Free pages: 5-9 and 12-63 (page 4 holds the metadata).
	specs := []struct {
		count    uintptr
		expFirst uintptr
	}{
		{1, 5},
		{3, 6},
		{2, 12},
		{5, 14},
		{1, 9},
		{45, 19},
	}

	var allocated []mm.AddressRange
	for specIndex, spec := range specs {
		got, err := alloc.AllocPages(spec.count)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", specIndex, err)
		}

		if exp := pageAt(base, spec.expFirst); got != exp {
			t.Fatalf("[spec %d] expected allocation at page %d (0x%x); got 0x%x", specIndex, spec.expFirst, exp, got)
		}

		run := mm.NewAddressRange(got, spec.count*mm.PageSize)
		for _, other := range allocated {
			if run.Overlaps(other) {
				t.Fatalf("[spec %d] allocation %v overlaps earlier allocation %v", specIndex, run, other)
			}
		}
		allocated = append(allocated, run)

		for index := uintptr(0); index < spec.count; index++ {
			pp, _ := alloc.PageFor(got + mm.PAddr(index<<mm.PageShift))
			if pp.Kind != PageAllocated {
				t.Errorf("[spec %d] expected page %d of the run to be allocated; got %s", specIndex, index, pp.Kind)
			}

			if expLast := index == spec.count-1; pp.IsLast != expLast {
				t.Errorf("[spec %d] expected IsLast for page %d of the run to be %t", specIndex, index, expLast)
			}
		}
	}

	// Every page handed out must have been free originally.
	for _, run := range allocated {
		if run.Overlaps(kernelImage.PageAligned()) || run.Overlaps(alloc.metadata) {
			t.Errorf("allocation %v overlaps the kernel image or the allocator metadata", run)
		}
		desc.VisitReservedRegions(func(r mm.AddressRange) bool {
			if run.Overlaps(r) {
				t.Errorf("allocation %v overlaps reserved region %v", run, r)
			}
			return true
		})
	}

	var allocatedPages uintptr
	alloc.VisitAllocatedPages(func(mm.PAddr) bool {
		allocatedPages++
		return true
	})

	if st := alloc.Stats(); st.Free != 0 || st.Allocated != allocatedPages || allocatedPages != 57 {
		t.Fatalf("expected all 57 free pages to be allocated; got stats %+v and %d visited pages", st, allocatedPages)
	}

	if _, err := alloc.AllocPages(1); err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory once memory is exhausted; got %v", err)
	}
}

func TestAllocPagesExhaustion(t *testing.T) {
	desc, kernelImage, _, buf := testLayout()
	defer runtime.KeepAlive(buf)

	alloc, err := New(desc, kernelImage)
	if err != nil {
		t.Fatal(err)
	}

	// Largest free run is pages 12-63.
	snapshot := make([]PhysicalPage, len(alloc.pages))
	copy(snapshot, alloc.pages)

	for _, count := range []uintptr{0, 53, 64, 1 << 20} {
		if _, err := alloc.AllocPages(count); err != ErrOutOfMemory {
			t.Fatalf("[count %d] expected ErrOutOfMemory; got %v", count, err)
		}

		for index := range snapshot {
			if alloc.pages[index] != snapshot[index] {
				t.Fatalf("[count %d] page %d changed after a failed allocation", count, index)
			}
		}
	}

	if _, err := alloc.AllocPages(52); err != nil {
		t.Fatalf("expected the largest free run to be allocatable; got %v", err)
	}
}

func TestAllocPage(t *testing.T) {
	desc, kernelImage, _, buf := testLayout()
	defer runtime.KeepAlive(buf)

	alloc, err := New(desc, kernelImage)
	if err != nil {
		t.Fatal(err)
	}

	page, err := alloc.AllocPage()
	if err != nil {
		t.Fatal(err)
	}

	contents := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(page))), mm.PageSize)
	for i, b := range contents {
		if b != 0 {
			t.Fatalf("expected allocated page to be zeroed; byte %d is 0x%x", i, b)
		}
	}
}

func TestFreePagesAndMemoryMap(t *testing.T) {
	defer kfmt.SetOutputSink(nil)

	desc, kernelImage, _, buf := testLayout()
	defer runtime.KeepAlive(buf)

	alloc, err := New(desc, kernelImage)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	kfmt.SetOutputSink(&out)
	out.Reset()

	page, _ := alloc.AllocPages(1)
	alloc.FreePages(page)

	if !strings.Contains(out.String(), "page reclamation is not supported") {
		t.Fatalf("expected FreePages to log a warning; got %q", out.String())
	}

	if pp, _ := alloc.PageFor(page); pp.Kind != PageAllocated {
		t.Fatalf("expected FreePages to leave the page allocated; got %s", pp.Kind)
	}

	out.Reset()
	alloc.PrintMemoryMap()

	for _, exp := range []string{
		"physical memory map",
		"kernel (4 pages)",
		"reserved (2 pages)",
		" metadata (1 pages)",
		"allocated (1 pages)",
		"free (4 pages)",
		"free (52 pages)",
		"pages: total 64, free 56, kernel 4, reserved 2, metadata 1, allocated 1",
	} {
		if !strings.Contains(out.String(), exp) {
			t.Errorf("expected memory map output to contain %q; got:\n%s", exp, out.String())
		}
	}

}
