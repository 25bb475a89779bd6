package mm

// Permissions describes the access rights granted by a mapping. The bit
// values are part of the kernel ABI and are identical on every supported
// architecture; each page table format translates them into its own
// protection encoding.
type Permissions uint8

const (
	// PermRead allows loads from the mapped page.
	PermRead Permissions = 1 << iota

	// PermWrite allows stores to the mapped page.
	PermWrite

	// PermExecute allows instruction fetches from the mapped page.
	PermExecute

	// PermUser makes the page accessible from user mode.
	PermUser
)

// Common permission sets.
const (
	PermRW  = PermRead | PermWrite
	PermRX  = PermRead | PermExecute
	PermRWX = PermRead | PermWrite | PermExecute
)

// Has returns true if all bits in flags are set.
func (p Permissions) Has(flags Permissions) bool {
	return p&flags == flags
}

// Normalize returns p with the implications enforced by all supported MMUs
// applied: a writable page is always readable.
func (p Permissions) Normalize() Permissions {
	if p.Has(PermWrite) {
		p |= PermRead
	}
	return p
}

// Accessible returns true if p grants at least one of read, write or
// execute access.
func (p Permissions) Accessible() bool {
	return p&(PermRead|PermWrite|PermExecute) != 0
}

// String returns the permissions in "rwxu" form with '-' for missing bits.
func (p Permissions) String() string {
	var buf = [4]byte{'-', '-', '-', '-'}
	if p.Has(PermRead) {
		buf[0] = 'r'
	}
	if p.Has(PermWrite) {
		buf[1] = 'w'
	}
	if p.Has(PermExecute) {
		buf[2] = 'x'
	}
	if p.Has(PermUser) {
		buf[3] = 'u'
	}
	return string(buf[:])
}
