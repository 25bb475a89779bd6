package hwdesc

import (
	"gokern/kernel/mm"
	"testing"
)

func TestStaticRegionOrder(t *testing.T) {
	var desc Static
	desc.
		AddMemRegion(mm.NewAddressRange(0x80000000, 0x1000000)).
		AddMemRegion(mm.NewAddressRange(0x40000000, 0x1000000)).
		AddMemRegion(mm.AddressRange{Start: 0x1000, End: 0x1000}).
		AddMemRegion(mm.NewAddressRange(0x60000000, 0x1000000)).
		AddReservedRegion(mm.NewAddressRange(0x48000000, 0x1000)).
		AddReservedRegion(mm.NewAddressRange(0x44000000, 0x1000))

	var got []mm.PAddr
	desc.VisitMemRegions(func(r mm.AddressRange) bool {
		got = append(got, r.Start)
		return true
	})

	exp := []mm.PAddr{0x40000000, 0x60000000, 0x80000000}
	if len(got) != len(exp) {
		t.Fatalf("expected %d regions; got %d", len(exp), len(got))
	}
	for i := range exp {
		if got[i] != exp[i] {
			t.Errorf("[region %d] expected start 0x%x; got 0x%x", i, exp[i], got[i])
		}
	}

	got = got[:0]
	desc.VisitReservedRegions(func(r mm.AddressRange) bool {
		got = append(got, r.Start)
		return false
	})

	if len(got) != 1 || got[0] != 0x44000000 {
		t.Fatalf("expected visitor to stop after the lowest reserved region; got %v", got)
	}
}

func TestStaticFindCompatible(t *testing.T) {
	var desc Static
	gic := &Node{
		Name:       "intc@8000000",
		Compatible: []string{"arm,cortex-a15-gic", "arm,gic-400"},
		Regs:       []mm.AddressRange{mm.NewAddressRange(0x8000000, 0x10000)},
	}
	desc.AddNode(&Node{Name: "uart@9000000", Compatible: []string{"arm,pl011"}}).AddNode(gic)

	specs := []struct {
		compat string
		exp    *Node
	}{
		{"arm,gic-400", gic},
		{"arm,cortex-a15-gic", gic},
		{"sifive,plic-1.0.0", nil},
	}

	for specIndex, spec := range specs {
		node, found := desc.FindCompatible(spec.compat)
		if found != (spec.exp != nil) || node != spec.exp {
			t.Errorf("[spec %d] unexpected lookup result for %q: (%v, %t)", specIndex, spec.compat, node, found)
		}
	}
}

func TestNodeProp(t *testing.T) {
	n := &Node{Props: map[string]uint64{"riscv,ndev": 96}}

	if v, ok := n.Prop("riscv,ndev"); !ok || v != 96 {
		t.Fatalf("expected riscv,ndev to be 96; got %d, %t", v, ok)
	}

	if _, ok := (&Node{}).Prop("riscv,ndev"); ok {
		t.Fatal("expected lookup on a node without properties to fail")
	}
}
