package kfmt

import "io"

// ringBufferSize is the capacity of the early output buffer. It must be a
// power of two.
const ringBufferSize = 4096

// ringBuffer is a fixed-size byte queue that keeps the most recent
// ringBufferSize-1 bytes written to it, silently discarding older output.
type ringBuffer struct {
	buffer     [ringBufferSize]byte
	head, tail int
}

// Write appends p to the buffer, overwriting the oldest bytes when full.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.tail] = b
		rb.tail = (rb.tail + 1) & (ringBufferSize - 1)
		if rb.tail == rb.head {
			rb.head = (rb.head + 1) & (ringBufferSize - 1)
		}
	}
	return len(p), nil
}

// Read drains up to len(p) bytes from the buffer. It returns io.EOF once
// the buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.head == rb.tail {
		return 0, io.EOF
	}

	end := rb.tail
	if rb.head > rb.tail {
		// Data wraps around; read up to the end of the backing array
		// and let the next call pick up the rest.
		end = ringBufferSize
	}

	n := copy(p, rb.buffer[rb.head:end])
	rb.head = (rb.head + n) & (ringBufferSize - 1)
	return n, nil
}
