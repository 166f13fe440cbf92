// Package session drives an emulator core: it owns the execution
// goroutine that steps the core at its native frame rate, forwards audio
// into the playback ring, coordinates run-state changes requested from
// other goroutines, and provides save states, cheats, and rewind on top.
package session

import (
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	emucore "github.com/user-none/edrive/api"
	"github.com/user-none/edrive/audio"
)

// Session drives one emulator core through its Stopped/Running/Paused
// lifecycle. Transition methods may be called from any goroutine; they
// block until the execution goroutine has acted on the change, so the
// externally observable state never shows a transition that has not
// actually happened.
type Session struct {
	core emucore.Core

	// Optional capabilities, detected once at construction.
	saveStater emucore.SaveStater
	battery    emucore.BatterySaver
	cheater    emucore.CheatSupporter

	mu sync.Mutex // serializes transitions and core access from callers

	// internal is written by transition callers and read by the loop
	// for control decisions. published only changes after a rendezvous,
	// so observers never see a transient state.
	internal  atomic.Int32
	published atomic.Int32

	rate atomic.Uint64 // float64 bits; plain scalar race tolerated

	// settled carries exactly one signal per state change observed by
	// the loop; done is closed when the loop goroutine exits. Both are
	// replaced on every launch.
	settled chan struct{}
	done    chan struct{}

	audioPlayer *audio.Player
	videoSink   emucore.VideoSink
	frameFn     func()

	inputs *inputLatch
	cheats map[string]emucore.CheatKind
	saves  *SaveStates
	rewind *RewindBuffer

	listeners []func(State)

	// refresh is the display refresh interval the render decision is
	// paced against. Defaults to the core's own frame duration.
	refresh time.Duration

	// Injectable clock, for scheduler tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a stopped session for the given core. Optional core
// capabilities (save states, battery saves, cheats) are detected here.
func New(core emucore.Core) *Session {
	s := &Session{
		core:   core,
		inputs: newInputLatch(),
		cheats: make(map[string]emucore.CheatKind),
		now:    time.Now,
		sleep:  time.Sleep,
	}
	s.saveStater, _ = core.(emucore.SaveStater)
	s.battery, _ = core.(emucore.BatterySaver)
	s.cheater, _ = core.(emucore.CheatSupporter)
	s.rate.Store(math.Float64bits(1.0))
	return s
}

// SetAudioPlayer attaches the audio player the execution goroutine queues
// samples into. Set before Start.
func (s *Session) SetAudioPlayer(p *audio.Player) {
	s.audioPlayer = p
}

// SetVideoSink attaches the sink notified once per rendered frame.
// Set before Start.
func (s *Session) SetVideoSink(sink emucore.VideoSink) {
	s.videoSink = sink
}

// SetSaveStates attaches the save state manager used for slots, resume
// state, and SRAM. Set before Start; nil disables persistence.
func (s *Session) SetSaveStates(m *SaveStates) {
	s.saves = m
}

// SetRewind attaches a rewind buffer. The execution goroutine captures
// states into it each frame. Set before Start; nil disables rewind.
func (s *Session) SetRewind(rb *RewindBuffer) {
	s.rewind = rb
}

// SetFrameCallback registers a function invoked after every emulation
// step, on the execution goroutine. Set before Start.
func (s *Session) SetFrameCallback(fn func()) {
	s.frameFn = fn
}

// SetRefreshInterval overrides the display refresh interval used for the
// render decision. Zero means the core's own frame duration.
func (s *Session) SetRefreshInterval(d time.Duration) {
	s.refresh = d
}

// OnStateChange registers a listener for published state changes.
// Listeners run on the goroutine that requested the transition, after
// the new state is published.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// State returns the externally observable run state.
func (s *Session) State() State {
	return State(s.published.Load())
}

// Rate returns the current speed multiplier.
func (s *Session) Rate() float64 {
	return math.Float64frombits(s.rate.Load())
}

// SetRate sets the speed multiplier. The scheduler picks it up on its
// next iteration; one iteration at the old rate is tolerated.
func (s *Session) SetRate(rate float64) {
	if rate <= 0 {
		rate = 1.0
	}
	s.rate.Store(math.Float64bits(rate))
}

// Start launches the execution goroutine. Returns false without effect
// if the session is not stopped. On success the published state is
// Running and the core has produced at least the beginning of a frame
// schedule.
func (s *Session) Start() bool {
	s.mu.Lock()
	if State(s.internal.Load()) != StateStopped {
		s.mu.Unlock()
		return false
	}

	if s.saves != nil && s.battery != nil {
		if err := s.saves.LoadSRAM(s.battery); err != nil {
			log.Printf("SRAM load failed: %v", err)
		}
	}
	if s.audioPlayer != nil {
		s.audioPlayer.SetEnabled(true)
	}

	s.internal.Store(int32(StateRunning))
	s.launch(StateStopped)
	<-s.settled

	s.finish(StateRunning)
	return true
}

// Stop halts the session from Running or Paused. Returns false without
// effect if already stopped. Blocks until the execution goroutine has
// exited, then flushes battery and resume saves (best-effort) before
// publishing Stopped.
func (s *Session) Stop() bool {
	s.mu.Lock()
	if State(s.internal.Load()) == StateStopped {
		s.mu.Unlock()
		return false
	}

	s.internal.Store(int32(StateStopped))
	if s.loopAlive() {
		<-s.settled
		<-s.done
	}

	if s.audioPlayer != nil {
		s.audioPlayer.SetEnabled(false)
		s.audioPlayer.Flush()
	}
	if s.saves != nil {
		if s.battery != nil {
			if err := s.saves.SaveSRAM(s.battery); err != nil {
				log.Printf("SRAM save failed: %v", err)
			}
		}
		if s.saveStater != nil {
			if err := s.saves.SaveResume(s.saveStater); err != nil {
				log.Printf("Resume save failed: %v", err)
			}
		}
	}

	s.finish(StateStopped)
	return true
}

// Pause parks the session. Returns false without effect unless Running.
// Blocks until the execution goroutine has exited, silences audio, and
// flushes the battery save (best-effort) before publishing Paused.
func (s *Session) Pause() bool {
	s.mu.Lock()
	if State(s.internal.Load()) != StateRunning {
		s.mu.Unlock()
		return false
	}

	s.internal.Store(int32(StatePaused))
	<-s.settled
	<-s.done

	if s.audioPlayer != nil {
		s.audioPlayer.SetEnabled(false)
	}
	if s.saves != nil && s.battery != nil {
		if err := s.saves.SaveSRAM(s.battery); err != nil {
			log.Printf("SRAM save failed: %v", err)
		}
	}

	s.finish(StatePaused)
	return true
}

// Resume relaunches the execution goroutine after Pause. Returns false
// without effect unless Paused.
func (s *Session) Resume() bool {
	s.mu.Lock()
	if State(s.internal.Load()) != StatePaused {
		s.mu.Unlock()
		return false
	}

	if s.audioPlayer != nil {
		s.audioPlayer.SetEnabled(true)
	}

	s.internal.Store(int32(StateRunning))
	s.launch(StatePaused)
	<-s.settled

	s.finish(StateRunning)
	return true
}

// Close stops the session if needed and releases the core and audio
// player.
func (s *Session) Close() {
	s.Stop()
	if s.audioPlayer != nil {
		s.audioPlayer.Close()
	}
	s.core.Close()
}

// finish publishes the new state and notifies listeners. Called with
// s.mu held; the lock is released before listeners run so they may call
// back into the session.
func (s *Session) finish(st State) {
	s.published.Store(int32(st))
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// launch starts a fresh execution goroutine. prev seeds the loop's state
// snapshot so its first iteration observes the transition and signals.
func (s *Session) launch(prev State) {
	s.settled = make(chan struct{}, 1)
	s.done = make(chan struct{})
	go s.run(prev, s.settled, s.done)
}

// loopAlive reports whether the current execution goroutine is still
// running. Transitions are serialized by s.mu, so a dead loop stays dead
// until the next launch.
func (s *Session) loopAlive() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// suspendLocked runs f with exclusive access to the core. If the loop is
// running it is parked first and relaunched after, without ever touching
// the published state: observers never see the transient pause. Called
// with s.mu held.
func (s *Session) suspendLocked(f func()) {
	if State(s.internal.Load()) != StateRunning || !s.loopAlive() {
		f()
		return
	}

	s.internal.Store(int32(StatePaused))
	<-s.settled
	<-s.done

	f()

	s.internal.Store(int32(StateRunning))
	s.launch(StatePaused)
	<-s.settled
}
