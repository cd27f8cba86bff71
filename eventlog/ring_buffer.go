package eventlog

import (
	"bytes"
	"sync"
)

// RingBuffer keeps the most recent bytes written to it.
type RingBuffer struct {
	mu      sync.Mutex
	data    []byte
	size    int
	w       int
	wrapped bool
}

// NewRingBuffer creates a RingBuffer of a specific size in bytes.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		data: make([]byte, size),
		size: size,
	}
}

// Empty zeroes the buffer.
func (l *RingBuffer) Empty() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w = 0
	l.wrapped = false
	l.data = make([]byte, l.size)
}

// Write writes data to the RingBuffer.
func (l *RingBuffer) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	// If we are writing more bytes than are available in the ring-buffer, skip
	// to the bytes that would not be overwritten by the wrapping behavior.
	tn := len(b)
	if tn > l.size {
		b = b[tn-l.size:]
	}

	// Copy into the buffer
	copy(l.data[l.w:], b)
	left := l.size - l.w
	n := len(b)
	if n >= left {
		l.wrapped = true
	}
	if n > left {
		copy(l.data, b[left:])
	}

	// Advance the write head
	l.w = (l.w + n) % l.size

	return tn, nil
}

// Bytes returns a byte slice containing all data written to the buffer.
// Once the buffer has wrapped, the output is trimmed to the first
// newline character so that it starts on a whole line.
func (l *RingBuffer) Bytes() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.wrapped {
		out := make([]byte, l.w)
		copy(out, l.data[:l.w])
		return out
	}

	out := make([]byte, l.size)
	copy(out, l.data[l.w:])
	copy(out[l.size-l.w:], l.data[:l.w])

	idx := bytes.IndexRune(out, '\n')
	if idx > -1 {
		return out[idx+1:]
	}
	return out
}
