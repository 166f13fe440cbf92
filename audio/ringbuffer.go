// Package audio provides the playback path between an emulator core and
// the sound device: a single-producer/single-consumer ring buffer filled
// by the execution goroutine and drained by oto's player.
package audio

import "sync/atomic"

// RingBuffer is a fixed-capacity byte buffer for exactly one producer and
// one consumer on separate goroutines. Writes never block: bytes that do
// not fit are dropped. Reads return whatever is buffered, possibly nothing.
//
// The only shared word is the fill counter; the write cursor is owned by
// the producer and the read cursor by the consumer, so no locking is
// needed as long as the one-writer/one-reader discipline holds.
type RingBuffer struct {
	buf      []byte
	capacity int

	writePos int // producer-owned
	readPos  int // consumer-owned

	fill    atomic.Int64
	enabled atomic.Bool
	flush   atomic.Bool
	closed  atomic.Bool
}

// NewRingBuffer creates an enabled ring buffer with the given capacity in
// bytes. The capacity is fixed for the life of the buffer.
func NewRingBuffer(capacity int) *RingBuffer {
	rb := &RingBuffer{
		buf:      make([]byte, capacity),
		capacity: capacity,
	}
	rb.enabled.Store(true)
	return rb
}

// Write copies as many bytes of p as fit in the free space and returns the
// number copied. Excess bytes are dropped, not queued. When the buffer is
// disabled the cursor and fill accounting still advance, keeping producer
// and consumer cadence in sync, but no payload memory is touched.
func (rb *RingBuffer) Write(p []byte) int {
	if rb.closed.Load() {
		return 0
	}

	free := rb.capacity - int(rb.fill.Load())
	n := len(p)
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	if rb.enabled.Load() {
		tail := rb.capacity - rb.writePos
		if n <= tail {
			copy(rb.buf[rb.writePos:], p[:n])
		} else {
			copy(rb.buf[rb.writePos:], p[:tail])
			copy(rb.buf, p[tail:n])
		}
	}

	rb.writePos = (rb.writePos + n) % rb.capacity
	rb.fill.Add(int64(n))
	return n
}

// Read copies up to len(p) buffered bytes into p, advances the read cursor
// by the amount consumed, and returns that count (possibly 0). When the
// buffer is disabled the accounting still advances but p is not written.
func (rb *RingBuffer) Read(p []byte) int {
	if rb.flush.CompareAndSwap(true, false) {
		rb.discardBuffered()
	}

	avail := int(rb.fill.Load())
	n := len(p)
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	if rb.enabled.Load() {
		tail := rb.capacity - rb.readPos
		if n <= tail {
			copy(p, rb.buf[rb.readPos:rb.readPos+n])
		} else {
			copy(p, rb.buf[rb.readPos:])
			copy(p[tail:n], rb.buf)
		}
	}

	rb.readPos = (rb.readPos + n) % rb.capacity
	rb.fill.Add(int64(-n))
	return n
}

// discardBuffered consumes everything currently buffered. Runs on the
// consumer's cursor, so it is only called from Read.
func (rb *RingBuffer) discardBuffered() {
	n := int(rb.fill.Load())
	if n == 0 {
		return
	}
	rb.readPos = (rb.readPos + n) % rb.capacity
	rb.fill.Add(int64(-n))
}

// Flush requests that all currently buffered bytes be discarded at the
// consumer's next Read. Unlike Reset this is safe while playback is
// active, because the discard happens on the consumer's own cursor.
func (rb *RingBuffer) Flush() {
	rb.flush.Store(true)
}

// Reset zeroes both cursors and the fill count. It must only be called
// when no Write or Read is in flight — in practice, while the owning
// session is stopped.
func (rb *RingBuffer) Reset() {
	rb.writePos = 0
	rb.readPos = 0
	rb.fill.Store(0)
	rb.flush.Store(false)
}

// SetEnabled gates payload movement. A disabled buffer keeps its flow
// accounting (writes and reads advance cursors and fill) but silences the
// data: writes do not touch buffer memory and reads do not touch the
// caller's memory.
func (rb *RingBuffer) SetEnabled(enabled bool) {
	rb.enabled.Store(enabled)
}

// Enabled reports whether payload movement is enabled.
func (rb *RingBuffer) Enabled() bool {
	return rb.enabled.Load()
}

// Buffered returns the number of bytes available for reading.
func (rb *RingBuffer) Buffered() int {
	return int(rb.fill.Load())
}

// Free returns the number of bytes available for writing.
func (rb *RingBuffer) Free() int {
	return rb.capacity - int(rb.fill.Load())
}

// Capacity returns the fixed capacity in bytes.
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// Close marks the buffer closed. Subsequent writes are ignored; readers
// may drain what remains.
func (rb *RingBuffer) Close() {
	rb.closed.Store(true)
}

// Closed reports whether Close has been called.
func (rb *RingBuffer) Closed() bool {
	return rb.closed.Load()
}
