//go:build !arm64 && !riscv64

package kmain

import (
	"gokern/kernel"
	"gokern/kernel/cpu"
	"gokern/kernel/hwdesc"
)

var errUnsupportedPlatform = &kernel.Error{Module: "kmain", Message: "unsupported platform"}

func currentPlatform(hwdesc.Description) (platform, *kernel.Error) {
	return platform{}, errUnsupportedPlatform
}

func idle() {
	cpu.Halt()
}
