package mm

// AddressRange describes the half-open physical byte range [Start, End).
type AddressRange struct {
	Start PAddr
	End   PAddr
}

// NewAddressRange returns the range that starts at start and spans size
// bytes.
func NewAddressRange(start PAddr, size uintptr) AddressRange {
	return AddressRange{Start: start, End: start + PAddr(size)}
}

// Valid returns true if the range is non-empty (Start < End).
func (r AddressRange) Valid() bool {
	return r.Start < r.End
}

// Size returns the number of bytes covered by the range.
func (r AddressRange) Size() uintptr {
	if !r.Valid() {
		return 0
	}
	return uintptr(r.End - r.Start)
}

// Contains returns true if addr falls inside the range.
func (r AddressRange) Contains(addr PAddr) bool {
	return addr >= r.Start && addr < r.End
}

// Overlaps returns true if the two ranges share at least one byte.
func (r AddressRange) Overlaps(other AddressRange) bool {
	return r.Valid() && other.Valid() && r.Start < other.End && other.Start < r.End
}

// PageAligned returns the smallest page-aligned range that covers r.
func (r AddressRange) PageAligned() AddressRange {
	return AddressRange{Start: r.Start.AlignDown(), End: r.End.AlignUp()}
}

// PageCount returns the number of pages touched by the range.
func (r AddressRange) PageCount() uintptr {
	if !r.Valid() {
		return 0
	}
	aligned := r.PageAligned()
	return uintptr(aligned.End-aligned.Start) >> PageShift
}

// VisitPages invokes visitor with the base address of each page touched by
// the range in ascending order. Iteration stops early if visitor returns
// false.
func (r AddressRange) VisitPages(visitor func(PAddr) bool) {
	if !r.Valid() {
		return
	}

	aligned := r.PageAligned()
	for page := aligned.Start; page < aligned.End; page += PAddr(PageSize) {
		if !visitor(page) {
			return
		}
	}
}
