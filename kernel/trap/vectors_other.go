//go:build !arm64 && !riscv64

package trap

import "gokern/kernel"

var errNoVectors = &kernel.Error{Module: "trap", Message: "no trap vectors for this architecture"}

func installVectors() {
	panic(errNoVectors)
}
