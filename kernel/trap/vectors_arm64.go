package trap

import "gokern/kernel/cpu"

// vectors is the VBAR_EL1 vector table: 16 entries of 0x80 bytes each. The
// table is aligned to 2 KiB.
func vectors()

// vectorBase returns the address of the first vector table entry.
func vectorBase() uintptr

func installVectors() {
	cpu.WriteVBAR(vectorBase())
}
