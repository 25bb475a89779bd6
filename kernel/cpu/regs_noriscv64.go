//go:build !riscv64

package cpu

func WriteSATP(uint64)            { unsupported() }
func ReadSATP() uint64            { unsupported(); return 0 }
func SFenceVMA()                  { unsupported() }
func WriteSTVEC(uintptr)          { unsupported() }
func EnableSupervisorIRQs(uint64) { unsupported() }
func ReadTime() uint64            { unsupported(); return 0 }
func SBISetTimer(uint64)          { unsupported() }
