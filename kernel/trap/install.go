package trap

import (
	"gokern/kernel"
	ksync "gokern/kernel/sync"
)

var (
	// active is the dispatcher that receives every trap taken by any core.
	active ksync.Cell[Dispatcher]

	installVectorsFn = installVectors

	// ErrAlreadyInstalled is returned by Install when a dispatcher has
	// already been installed.
	ErrAlreadyInstalled = &kernel.Error{Module: "trap", Message: "trap dispatcher already installed"}

	errNoDispatcher = &kernel.Error{Module: "trap", Message: "trap taken before a dispatcher was installed"}
)

// Install makes d the target of all traps and points the current core's
// vector base register at the trap entry code. The dispatcher can only be
// installed once.
func Install(d *Dispatcher) *kernel.Error {
	if !active.Set(d) {
		return ErrAlreadyInstalled
	}

	installVectorsFn()
	return nil
}

// Active returns the installed dispatcher or nil.
func Active() *Dispatcher {
	return active.Get()
}

// dispatch is invoked by the vector code with a pointer to the frame that
// it built on the trap stack.
func dispatch(frame *Frame) {
	d := active.Get()
	if d == nil {
		panic(errNoDispatcher)
	}
	d.Handle(frame)
}
