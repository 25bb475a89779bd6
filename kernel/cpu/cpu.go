// Package cpu exposes the privileged instructions and system registers used
// by the memory and interrupt subsystems. Each supported architecture
// provides an assembly implementation; on any other architecture (e.g. when
// running unit tests on a development host) the entry points panic, so
// callers must access them through package-level function variables that
// tests can replace.
package cpu

import "gokern/kernel"

var errUnsupported = &kernel.Error{Module: "cpu", Message: "instruction not supported on this architecture"}

// unsupported is invoked by the entry points that have no implementation
// for the architecture the kernel was compiled for.
func unsupported() {
	panic(errUnsupported)
}
