// Package kfmt implements the kernel's logging primitives: a Printf that is
// safe to call before the Go allocator is available, a ring buffer that
// holds early output until a console is attached and a writer that tags
// every line with a module prefix.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufLen is large enough to hold a 64-bit value in base 8 plus a sign.
const numBufLen = 24

var (
	badVerb    = []byte("%!(NOVERB)")
	badType    = []byte("%!(WRONGTYPE)")
	missingArg = []byte("(MISSING)")
	extraArg   = []byte("%!(EXTRA)")
	trueStr    = []byte("true")
	falseStr   = []byte("false")
	digits     = []byte("0123456789abcdef")

	// scratch holds single characters and formatted numbers. Output is
	// produced one call at a time so a shared buffer is sufficient.
	scratch [numBufLen + 1]byte

	// earlyOutput collects Printf output while no sink is attached.
	earlyOutput ringBuffer

	// outputSink receives the output of Printf. When nil, output is
	// buffered in earlyOutput.
	outputSink io.Writer
)

// SetOutputSink directs all future Printf output to w and flushes any
// output buffered so far into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		_, _ = io.Copy(w, &earlyOutput)
	}
}

// GetOutputSink returns the currently registered output sink.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf formats according to a format specifier and writes to the active
// output sink. The supported verbs are:
//
//	%s  string or []byte
//	%d  base 10 integer, left-padded with spaces up to the requested width
//	%x  base 16 integer, left-padded with zeroes
//	%o  base 8 integer, left-padded with zeroes
//	%t  boolean
//
// A decimal width may precede the verb. Printf does not allocate so it can
// be used from the earliest stages of the boot process and from trap
// handlers.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes its output to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
		i        int
	)

	for i < len(format) {
		ch := format[i]
		i++
		if ch != '%' {
			writeByte(w, ch)
			continue
		}

		width = 0
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			write(w, badVerb)
			break
		}

		verb := format[i]
		i++

		switch verb {
		case '%':
			writeByte(w, '%')
			continue
		case 's', 'd', 'x', 'o', 't':
		default:
			write(w, badVerb)
			continue
		}

		if argIndex >= len(args) {
			write(w, missingArg)
			continue
		}

		arg := args[argIndex]
		argIndex++

		switch verb {
		case 's':
			fmtString(w, arg, width)
		case 'd':
			fmtInt(w, arg, 10, width)
		case 'x':
			fmtInt(w, arg, 16, width)
		case 'o':
			fmtInt(w, arg, 8, width)
		case 't':
			fmtBool(w, arg)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		write(w, extraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		write(w, badType)
	case b:
		write(w, trueStr)
	default:
		write(w, falseStr)
	}
}

func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		padWith(w, ' ', width-len(s))
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		padWith(w, ' ', width-len(s))
		write(w, s)
	default:
		write(w, badType)
	}
}

func fmtInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		val      uint64
		negative bool
	)

	switch n := v.(type) {
	case uint8:
		val = uint64(n)
	case uint16:
		val = uint64(n)
	case uint32:
		val = uint64(n)
	case uint64:
		val = n
	case uint:
		val = uint64(n)
	case uintptr:
		val = uint64(n)
	case int8:
		val, negative = abs(int64(n))
	case int16:
		val, negative = abs(int64(n))
	case int32:
		val, negative = abs(int64(n))
	case int64:
		val, negative = abs(n)
	case int:
		val, negative = abs(int64(n))
	default:
		write(w, badType)
		return
	}

	// Digits are generated right-to-left into scratch.
	pos := numBufLen
	for {
		pos--
		scratch[pos] = digits[val%base]
		val /= base
		if val == 0 {
			break
		}
	}

	if width > numBufLen-1 {
		width = numBufLen - 1
	}

	if base == 10 {
		if negative {
			pos--
			scratch[pos] = '-'
		}
		for numBufLen-pos < width {
			pos--
			scratch[pos] = ' '
		}
	} else {
		if negative {
			width--
		}
		for numBufLen-pos < width {
			pos--
			scratch[pos] = '0'
		}
		if negative {
			pos--
			scratch[pos] = '-'
		}
	}

	write(w, scratch[pos:numBufLen])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

func padWith(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

func writeByte(w io.Writer, ch byte) {
	scratch[numBufLen] = ch
	write(w, scratch[numBufLen:numBufLen+1])
}

// write hides p from escape analysis. Without it the compiler cannot prove
// that p does not escape through the io.Writer interface and every Printf
// call would allocate.
func write(w io.Writer, p []byte) {
	doWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w == nil {
		_, _ = earlyOutput.Write(p)
		return
	}
	_, _ = w.Write(p)
}

// noEscape hides a pointer from escape analysis (see runtime/stubs.go).
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
