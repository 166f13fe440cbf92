package session

import (
	"runtime"
	"time"
)

// Audio buffer comfort zone for the sleep trim, in bytes of stereo int16
// at 48kHz.
const (
	audioLowWater  = 9600  // ~3 frames — sleep less below this
	audioHighWater = 19200 // ~6 frames — sleep more above this
)

// run is the execution loop. It lives on its own locked OS thread for a
// single Running span: Pause and Stop both end the goroutine, and Resume
// spawns a fresh one. prev seeds the state snapshot so the first
// iteration observes the launching transition and signals settled.
func (s *Session) run(prev State, settled chan<- struct{}, done chan struct{}) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	base := time.Duration(float64(time.Second) / s.core.Timing().FPS)
	refresh := s.refresh
	if refresh <= 0 {
		refresh = base
	}

	snapshot := prev
	lastRate := s.Rate()
	virtual := s.now()
	var renderAccum time.Duration

	for {
		rate := s.Rate()
		frameDur := time.Duration(float64(base) / rate)

		// A rate change re-baselines pacing for the new period and
		// restarts the render cadence.
		if rate != lastRate {
			lastRate = rate
			renderAccum = 0
			virtual = s.now()
		}

		render := renderAccum >= refresh
		if render {
			renderAccum = 0
		}
		s.step(render)

		renderAccum += frameDur
		virtual = virtual.Add(frameDur)

		// Catch up when more than a frame behind wall time. Catch-up
		// frames run only at 1x: at any other rate the skew is the
		// requested speed change itself. The virtual clock resyncs
		// either way.
		if behind := s.now().Sub(virtual); behind > frameDur {
			if rate == 1.0 {
				for i := 0; i < int(behind/frameDur); i++ {
					s.step(false)
				}
			}
			virtual = s.now()
		}

		// Rendezvous: exactly one signal per observed state change.
		// The snapshot update is unconditional whenever a signal
		// fires; missing it would strand a waiting transition caller.
		cur := State(s.internal.Load())
		if cur != snapshot {
			snapshot = cur
			select {
			case settled <- struct{}{}:
			default:
			}
		}

		// The loop always exits on non-Running; whether that means
		// "parked" or "gone" is the controller's concern. Resume
		// launches a fresh goroutine.
		if cur != StateRunning {
			return
		}

		if d := virtual.Sub(s.now()); d > time.Millisecond {
			if s.audioPlayer != nil {
				d = trimSleep(d, s.audioPlayer.BufferLevel())
			}
			s.sleep(d)
		}
	}
}

// trimSleep nudges the frame sleep to keep the audio buffer in its
// comfort zone: shorter when the buffer is running dry, longer when it
// is overfull. The virtual clock is untouched, so pacing stays anchored
// to it and the trim only shifts where in the period the step lands.
func trimSleep(d time.Duration, bufferLevel int) time.Duration {
	if bufferLevel < audioLowWater {
		return time.Duration(float64(d) * 0.9)
	}
	if bufferLevel > audioHighWater {
		return time.Duration(float64(d) * 1.1)
	}
	return d
}

// step runs one emulation frame: apply input edges, advance the core,
// queue its audio, hand the frame to the video sink when rendered,
// capture rewind state, signal pending input reactivations, and invoke
// the per-frame callback.
func (s *Session) step(render bool) {
	s.inputs.apply(s.core)

	s.core.RunFrame(render)

	if s.audioPlayer != nil {
		s.audioPlayer.QueueSamples(s.core.AudioSamples())
	}
	if render && s.videoSink != nil {
		s.videoSink.DisplayFrame(s.core.Framebuffer(), s.core.FramebufferStride(), s.core.ActiveHeight())
	}
	if s.rewind != nil && s.saveStater != nil {
		s.rewind.Capture(s.saveStater)
	}

	s.inputs.signalTokens()

	if s.frameFn != nil {
		s.frameFn()
	}
}
