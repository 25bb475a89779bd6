package mm

import "testing"

func TestPAddrAlignment(t *testing.T) {
	specs := []struct {
		input          PAddr
		expDown, expUp PAddr
		expAligned     bool
		expPageNumber  uintptr
	}{
		{0, 0, 0, true, 0},
		{1, 0, 4096, false, 0},
		{4095, 0, 4096, false, 0},
		{4096, 4096, 4096, true, 1},
		{4123, 4096, 8192, false, 1},
	}

	for specIndex, spec := range specs {
		if got := spec.input.AlignDown(); got != spec.expDown {
			t.Errorf("[spec %d] expected AlignDown to return %x; got %x", specIndex, spec.expDown, got)
		}
		if got := spec.input.AlignUp(); got != spec.expUp {
			t.Errorf("[spec %d] expected AlignUp to return %x; got %x", specIndex, spec.expUp, got)
		}
		if got := spec.input.IsAligned(); got != spec.expAligned {
			t.Errorf("[spec %d] expected IsAligned to return %t; got %t", specIndex, spec.expAligned, got)
		}
		if got := spec.input.PageNumber(); got != spec.expPageNumber {
			t.Errorf("[spec %d] expected PageNumber to return %d; got %d", specIndex, spec.expPageNumber, got)
		}
	}
}

func TestVAddrMethods(t *testing.T) {
	va := VAddr(0x40001234)

	if exp, got := VAddr(0x40001000), va.AlignDown(); got != exp {
		t.Errorf("expected AlignDown to return %x; got %x", exp, got)
	}
	if exp, got := VAddr(0x40002000), va.AlignUp(); got != exp {
		t.Errorf("expected AlignUp to return %x; got %x", exp, got)
	}
	if exp, got := uintptr(0x234), va.PageOffset(); got != exp {
		t.Errorf("expected PageOffset to return %x; got %x", exp, got)
	}
	if va.IsAligned() {
		t.Error("expected IsAligned to return false")
	}
	if exp, got := VAddr(0x9000), IdentityVAddr(PAddr(0x9000)); got != exp {
		t.Errorf("expected IdentityVAddr to return %x; got %x", exp, got)
	}
}

func TestSizePages(t *testing.T) {
	specs := []struct {
		size     Size
		expPages uintptr
	}{
		{0, 0},
		{1, 1},
		{4096, 1},
		{4097, 2},
		{Mb, 256},
	}

	for specIndex, spec := range specs {
		if got := spec.size.Pages(); got != spec.expPages {
			t.Errorf("[spec %d] expected Pages() to return %d; got %d", specIndex, spec.expPages, got)
		}
	}
}
