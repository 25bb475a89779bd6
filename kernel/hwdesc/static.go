package hwdesc

import "gokern/kernel/mm"

// Static is a Description assembled in memory by board code. Regions are
// kept sorted by start address so that they are visited in ascending order
// irrespective of the order in which they were added.
type Static struct {
	memRegions      []mm.AddressRange
	reservedRegions []mm.AddressRange
	nodes           []*Node
}

// AddMemRegion registers a region of installed RAM. Empty regions are
// ignored.
func (s *Static) AddMemRegion(r mm.AddressRange) *Static {
	s.memRegions = insertSorted(s.memRegions, r)
	return s
}

// AddReservedRegion registers a region of RAM that must not be allocated.
// Empty regions are ignored.
func (s *Static) AddReservedRegion(r mm.AddressRange) *Static {
	s.reservedRegions = insertSorted(s.reservedRegions, r)
	return s
}

// AddNode registers a device node.
func (s *Static) AddNode(n *Node) *Static {
	s.nodes = append(s.nodes, n)
	return s
}

// VisitMemRegions implements Description.
func (s *Static) VisitMemRegions(visitor func(mm.AddressRange) bool) {
	visitRanges(s.memRegions, visitor)
}

// VisitReservedRegions implements Description.
func (s *Static) VisitReservedRegions(visitor func(mm.AddressRange) bool) {
	visitRanges(s.reservedRegions, visitor)
}

// FindCompatible implements Description.
func (s *Static) FindCompatible(compat string) (*Node, bool) {
	for _, n := range s.nodes {
		if n.IsCompatible(compat) {
			return n, true
		}
	}
	return nil, false
}

func visitRanges(list []mm.AddressRange, visitor func(mm.AddressRange) bool) {
	for _, r := range list {
		if !visitor(r) {
			return
		}
	}
}

func insertSorted(list []mm.AddressRange, r mm.AddressRange) []mm.AddressRange {
	if !r.Valid() {
		return list
	}

	i := len(list)
	for i > 0 && list[i-1].Start > r.Start {
		i--
	}

	list = append(list, mm.AddressRange{})
	copy(list[i+1:], list[i:])
	list[i] = r
	return list
}
