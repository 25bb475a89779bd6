package main

import "gokern/kernel/kmain"

var bootInfo kmain.BootInfo

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code.
//
// A global variable is passed as an argument to Kmain to prevent the compiler
// from inlining the actual call and removing Kmain from the generated object
// file. The board bring-up code fills in bootInfo and jumps to Kmain directly.
func main() {
	kmain.Kmain(bootInfo)
}
