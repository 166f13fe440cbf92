package session

import (
	"fmt"
	"sync"
	"testing"
)

// countingStater hands out numbered states so tests can tell which one a
// Pop restored.
type countingStater struct {
	mu       sync.Mutex
	n        int
	restored string
}

func (c *countingStater) Serialize() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return []byte(fmt.Sprintf("state-%d", c.n)), nil
}

func (c *countingStater) Deserialize(data []byte) error {
	c.mu.Lock()
	c.restored = string(data)
	c.mu.Unlock()
	return nil
}

func TestNewRewindBufferSizing(t *testing.T) {
	rb := NewRewindBuffer(1, 1, 1024)
	if rb == nil {
		t.Fatal("expected buffer")
	}
	if rb.capacity != 1024 {
		t.Errorf("expected 1024 slots for 1MB of 1KB states, got %d", rb.capacity)
	}

	if NewRewindBuffer(0, 1, 1024) != nil {
		t.Error("expected nil for zero buffer size")
	}
	if NewRewindBuffer(1, 0, 1024) != nil {
		t.Error("expected nil for zero frame step")
	}
	if NewRewindBuffer(1, 1, 0) != nil {
		t.Error("expected nil for zero state size")
	}
	if NewRewindBuffer(1, 1, 2*1024*1024) != nil {
		t.Error("expected nil when no slot fits")
	}
}

func TestRewindCaptureAndPop(t *testing.T) {
	ss := &countingStater{}
	core := newFakeCore()
	rb := NewRewindBuffer(1, 1, 1024)

	for i := 0; i < 5; i++ {
		if err := rb.Capture(ss); err != nil {
			t.Fatalf("Capture failed: %v", err)
		}
	}
	if rb.Count() != 5 {
		t.Fatalf("expected 5 entries, got %d", rb.Count())
	}

	// Discard the two newest, restore the third
	if !rb.Pop(core, ss, 2) {
		t.Fatal("Pop failed")
	}
	if ss.restored != "state-3" {
		t.Errorf("expected state-3 restored, got %q", ss.restored)
	}
	if rb.Count() != 3 {
		t.Errorf("expected 3 entries left, got %d", rb.Count())
	}

	// Pop regenerates the frame
	if core.rendered.Load() != 1 {
		t.Errorf("expected one rendered frame after Pop, got %d", core.rendered.Load())
	}
}

func TestRewindPopExhaustsHistory(t *testing.T) {
	ss := &countingStater{}
	core := newFakeCore()
	rb := NewRewindBuffer(1, 1, 1024)

	if rb.Pop(core, ss, 1) {
		t.Error("Pop on empty buffer should fail")
	}

	rb.Capture(ss)
	rb.Capture(ss)

	// Asking for more history than exists fails without restoring
	if rb.Pop(core, ss, 10) {
		t.Error("Pop past the start of history should fail")
	}
}

func TestRewindFrameStepGating(t *testing.T) {
	ss := &countingStater{}
	rb := NewRewindBuffer(1, 3, 1024)

	for i := 0; i < 6; i++ {
		rb.Capture(ss)
	}
	if rb.Count() != 2 {
		t.Errorf("expected 2 entries with frame step 3, got %d", rb.Count())
	}
}

func TestRewindWrapsOldest(t *testing.T) {
	ss := &countingStater{}
	core := newFakeCore()
	rb := NewRewindBuffer(1, 1, 256*1024) // 4 slots

	if rb.capacity != 4 {
		t.Fatalf("expected 4 slots, got %d", rb.capacity)
	}
	for i := 0; i < 6; i++ {
		rb.Capture(ss)
	}
	if rb.Count() != 4 {
		t.Fatalf("expected full buffer of 4, got %d", rb.Count())
	}

	// Newest four are states 3..6; discarding one restores state 5
	if !rb.Pop(core, ss, 1) {
		t.Fatal("Pop failed")
	}
	if ss.restored != "state-5" {
		t.Errorf("expected state-5 restored, got %q", ss.restored)
	}
}

func TestRewindReset(t *testing.T) {
	ss := &countingStater{}
	core := newFakeCore()
	rb := NewRewindBuffer(1, 1, 1024)

	rb.Capture(ss)
	rb.Capture(ss)
	rb.Reset()

	if rb.Count() != 0 {
		t.Errorf("expected empty buffer after Reset, got %d", rb.Count())
	}
	if rb.Pop(core, ss, 1) {
		t.Error("Pop after Reset should fail")
	}
}

func TestSessionRewind(t *testing.T) {
	core := newFakeCore()
	s, _ := newTestSession(core)
	defer s.Close()

	rb := NewRewindBuffer(1, 1, 1024)
	s.SetRewind(rb)

	s.Start()
	waitFor(t, "frames", func() bool { return core.frames.Load() >= 5 })
	s.Pause()

	if rb.Count() < 2 {
		t.Fatalf("expected at least 2 captures, got %d", rb.Count())
	}
	if !s.Rewind(2) {
		t.Fatal("Rewind failed")
	}
	core.mu.Lock()
	restored := core.restored
	core.mu.Unlock()
	if restored == nil {
		t.Error("core state not restored by Rewind")
	}

	// Published state untouched by the transient suspension
	if s.State() != StatePaused {
		t.Errorf("expected Paused after Rewind, got %v", s.State())
	}
}

func TestSessionRewindUnavailable(t *testing.T) {
	core := newFakeCore()
	s, _ := newTestSession(core)
	defer s.Close()

	// No rewind buffer attached
	if s.Rewind(1) {
		t.Error("Rewind without buffer should fail")
	}

	s.SetRewind(NewRewindBuffer(1, 1, 1024))
	if s.Rewind(0) {
		t.Error("Rewind of zero steps should fail")
	}
}
