package audio

import (
	"io"
	"testing"
)

func TestRingReader_PadsWithSilence(t *testing.T) {
	ring := NewRingBuffer(16)
	r := &ringReader{ring: ring}

	ring.Write([]byte{1, 2, 3})

	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("expected full read of %d bytes, got %d", len(buf), n)
	}
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 {
		t.Fatalf("data prefix mismatch: %v", buf[:3])
	}
	for i := 3; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d: expected silence padding, got %d", i, buf[i])
		}
	}
}

func TestRingReader_DisabledYieldsSilence(t *testing.T) {
	ring := NewRingBuffer(16)
	r := &ringReader{ring: ring}

	ring.Write([]byte{9, 9, 9, 9})
	ring.SetEnabled(false)

	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 bytes, got %d", n)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d: expected silence while disabled, got %d", i, b)
		}
	}
	// Accounting still drained the ring.
	if ring.Buffered() != 0 {
		t.Fatalf("expected ring drained, got %d buffered", ring.Buffered())
	}
}

func TestRingReader_EOFAfterCloseAndDrain(t *testing.T) {
	ring := NewRingBuffer(16)
	r := &ringReader{ring: ring}

	ring.Write([]byte{1, 2})
	ring.Close()

	buf := make([]byte, 4)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("expected remaining data before EOF, got error %v", err)
	}
	if n != 4 {
		t.Fatalf("expected padded read, got %d", n)
	}

	if _, err := r.Read(buf); err != io.EOF {
		t.Fatalf("expected io.EOF after close and drain, got %v", err)
	}
}
