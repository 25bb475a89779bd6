//go:build !arm64

package cpu

func WriteMAIR(uint64)        { unsupported() }
func WriteTCR(uint64)         { unsupported() }
func WriteTTBR0(uint64)       { unsupported() }
func ReadTTBR0() uint64       { unsupported(); return 0 }
func ReadSCTLR() uint64       { unsupported(); return 0 }
func WriteSCTLR(uint64)       { unsupported() }
func DataSyncBarrier()        { unsupported() }
func InstructionSyncBarrier() { unsupported() }
func InvalidateTLBAll()       { unsupported() }
func WriteVBAR(uintptr)       { unsupported() }
func ReadCNTFRQ() uint64      { unsupported(); return 0 }
func WriteCNTPTVAL(uint64)    { unsupported() }
func WriteCNTPCTL(uint64)     { unsupported() }
