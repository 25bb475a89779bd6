package trap

import "gokern/kernel/cpu"

// trapEntry is the direct-mode stvec target for every trap.
func trapEntry()

// trapEntryAddr returns the address of trapEntry.
func trapEntryAddr() uintptr

func installVectors() {
	cpu.WriteSTVEC(trapEntryAddr())
}
