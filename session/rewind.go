package session

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	emucore "github.com/user-none/edrive/api"
)

// RewindBuffer stores serialized emulator states in a ring for stepping
// gameplay backwards. States are captured every frameStep frames by the
// execution goroutine and popped LIFO by Session.Rewind. Slots hold
// zstd-compressed blobs; serialized machine state is mostly RAM and
// compresses well, so the buffer rewinds much further than its raw
// sizing suggests.
//
// Capture runs on the execution goroutine and Rewind only with the loop
// parked, so no locking is needed.
type RewindBuffer struct {
	slots     [][]byte
	head      int // Next write position
	count     int // Number of valid entries
	capacity  int // Max entries
	frameStep int // Capture every N frames
	frameTick int

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewRewindBuffer allocates a ring sized to fit bufferSizeMB worth of
// uncompressed states of stateSize bytes each. Returns nil when the
// parameters cannot produce at least one slot.
func NewRewindBuffer(bufferSizeMB, frameStep, stateSize int) *RewindBuffer {
	if stateSize <= 0 || bufferSizeMB <= 0 || frameStep <= 0 {
		return nil
	}
	capacity := (bufferSizeMB * 1024 * 1024) / stateSize
	if capacity == 0 {
		return nil
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil
	}

	return &RewindBuffer{
		slots:     make([][]byte, capacity),
		capacity:  capacity,
		frameStep: frameStep,
		enc:       enc,
		dec:       dec,
	}
}

// Capture serializes and stores the current state. Only captures every
// frameStep frames; call once per executed frame.
func (rb *RewindBuffer) Capture(ss emucore.SaveStater) error {
	rb.frameTick++
	if rb.frameTick < rb.frameStep {
		return nil
	}
	rb.frameTick = 0

	state, err := ss.Serialize()
	if err != nil {
		return fmt.Errorf("rewind capture: %w", err)
	}

	rb.slots[rb.head] = rb.enc.EncodeAll(state, rb.slots[rb.head][:0])
	rb.head = (rb.head + 1) % rb.capacity
	if rb.count < rb.capacity {
		rb.count++
	}
	return nil
}

// Pop discards count entries and restores the one before them. After
// deserializing, RunFrame regenerates the framebuffer, which the
// serialized state does not include. Returns false if the buffer does
// not reach back that far.
func (rb *RewindBuffer) Pop(core emucore.Core, ss emucore.SaveStater, count int) bool {
	if rb.count == 0 {
		return false
	}
	if count > rb.count {
		count = rb.count
	}

	rb.head = (rb.head - count + rb.capacity) % rb.capacity
	rb.count -= count

	// head points at the next write slot; the most recent kept entry
	// is one behind it.
	idx := (rb.head - 1 + rb.capacity) % rb.capacity
	compressed := rb.slots[idx]
	if compressed == nil {
		return false
	}

	state, err := rb.dec.DecodeAll(compressed, nil)
	if err != nil {
		return false
	}
	if err := ss.Deserialize(state); err != nil {
		return false
	}

	core.RunFrame(true)
	return true
}

// Reset clears the buffer. Call on launch or after a save state load.
func (rb *RewindBuffer) Reset() {
	rb.head = 0
	rb.count = 0
	rb.frameTick = 0
	for i := range rb.slots {
		rb.slots[i] = nil
	}
}

// Count returns the number of valid entries.
func (rb *RewindBuffer) Count() int {
	return rb.count
}

// Rewind steps the session backwards by the given number of captured
// states, parking the execution goroutine for the duration. The restored
// frame is pushed to the video sink and stale audio is flushed. Returns
// false when rewind is not available or the history is exhausted.
func (s *Session) Rewind(steps int) bool {
	if s.rewind == nil || s.saveStater == nil || steps <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok := false
	s.suspendLocked(func() {
		ok = s.rewind.Pop(s.core, s.saveStater, steps)
		if !ok {
			return
		}
		s.inputs.reassert(s.core)
		if s.audioPlayer != nil {
			s.audioPlayer.Flush()
		}
		if s.videoSink != nil {
			s.videoSink.DisplayFrame(s.core.Framebuffer(), s.core.FramebufferStride(), s.core.ActiveHeight())
		}
	})
	return ok
}
