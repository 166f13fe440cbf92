package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const sampleRate = 48000

// ringCapacity is ~167ms at 48kHz stereo 16-bit (~32KB).
const ringCapacity = 32768

// Player manages audio playback via oto. The execution goroutine writes
// int16 stereo samples into the ring buffer; oto's player pulls bytes out
// on its own goroutine.
type Player struct {
	player  *oto.Player
	ring    *RingBuffer
	scratch []byte // Pre-allocated buffer for int16-to-byte conversion
}

// oto context singleton — one audio device for the process
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
)

// ensureOtoContext initializes the oto audio context on first use.
func ensureOtoContext() (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond, // Reduce OS AudioQueue from default ~100ms
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-readyChan
	})
	return otoCtx, otoInitErr
}

// NewPlayer creates and starts audio playback. The volume parameter sets
// the initial volume before playback starts, preventing pops when muted.
func NewPlayer(volume float64) (*Player, error) {
	ctx, err := ensureOtoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	ring := NewRingBuffer(ringCapacity)
	player := ctx.NewPlayer(&ringReader{ring: ring})
	// Reduce the mux player buffer from the default 96000 bytes (0.5s) to
	// ~50ms so pause and flush take effect quickly.
	player.SetBufferSize(19200)
	player.SetVolume(volume)
	player.Play()

	return &Player{
		player:  player,
		ring:    ring,
		scratch: make([]byte, 0, 4096),
	}, nil
}

// ringReader adapts the ring buffer to oto's pull model.
type ringReader struct {
	ring *RingBuffer
}

// Read drains the ring buffer into p and pads the remainder with silence.
// Returning zero bytes starves oto's mux and makes it spin
// (ebitengine/oto#261); a full constant-size read also keeps the stereo
// int16 sample alignment intact.
func (r *ringReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := r.ring.Read(p)
	if n == 0 && r.ring.Closed() {
		return 0, io.EOF
	}
	if !r.ring.Enabled() {
		// A disabled ring advances accounting without writing p;
		// whatever was in p is stale.
		clear(p[:n])
	}
	clear(p[n:])
	return len(p), nil
}

// QueueSamples converts int16 stereo samples to bytes and writes them to
// the ring buffer. Called from the execution goroutine; never blocks, and
// samples that do not fit are dropped.
func (p *Player) QueueSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}

	needed := len(samples) * 2
	if cap(p.scratch) < needed {
		p.scratch = make([]byte, 0, needed)
	}
	p.scratch = p.scratch[:0]
	for _, s := range samples {
		p.scratch = append(p.scratch, byte(s), byte(s>>8))
	}

	p.ring.Write(p.scratch)
}

// SetEnabled silences or unsilences playback without disturbing the
// producer/consumer flow accounting.
func (p *Player) SetEnabled(enabled bool) {
	p.ring.SetEnabled(enabled)
}

// Flush discards all buffered audio at the consumer's next read. Used
// after a save-state load or rewind to drop stale samples.
func (p *Player) Flush() {
	p.ring.Flush()
}

// BufferLevel returns the total bytes of audio currently buffered in the
// ring plus oto's internal player buffer.
func (p *Player) BufferLevel() int {
	return p.ring.Buffered() + p.player.BufferedSize()
}

// SetVolume sets playback volume (0.0 = silent, 1.0 = normal, 2.0 = max).
// Values are clamped to [0.0, 2.0].
func (p *Player) SetVolume(vol float64) {
	if vol < 0 {
		vol = 0
	} else if vol > 2.0 {
		vol = 2.0
	}
	p.player.SetVolume(vol)
}

// Close stops playback and releases the oto player.
func (p *Player) Close() {
	if p.ring != nil {
		p.ring.Close()
	}
	if p.player != nil {
		p.player.Close()
	}
}
