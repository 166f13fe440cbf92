package session

import (
	"sync"

	emucore "github.com/user-none/edrive/api"
)

// buttonKey identifies one logical button of one player.
type buttonKey struct {
	player, button int
}

// inputLatch holds the desired logical button state written by caller
// goroutines and applies it to the core as edge transitions at the top of
// each emulation step. It also tracks reactivation tokens: when a button
// is pressed while already active, the core would see no edge, so the
// latch drops the button and a token waits out two scheduler iterations
// before re-pressing it.
type inputLatch struct {
	mu      sync.Mutex
	desired map[buttonKey]bool
	applied map[buttonKey]bool
	tokens  map[*reactivateToken]struct{}
}

// reactivateToken is signaled once per scheduler iteration. Its waiter
// needs exactly two signals; the channel capacity absorbs iterations that
// outpace the waiter.
type reactivateToken struct {
	ch chan struct{}
}

func newInputLatch() *inputLatch {
	return &inputLatch{
		desired: make(map[buttonKey]bool),
		applied: make(map[buttonKey]bool),
		tokens:  make(map[*reactivateToken]struct{}),
	}
}

// press records a button press. If the button is already active it is
// deactivated immediately and a reactivation token is returned; the
// caller must arrange for finishReactivation after the token has been
// signaled twice.
func (l *inputLatch) press(player, button int) *reactivateToken {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := buttonKey{player, button}
	if l.desired[k] {
		l.desired[k] = false
		tok := &reactivateToken{ch: make(chan struct{}, 2)}
		l.tokens[tok] = struct{}{}
		return tok
	}
	l.desired[k] = true
	return nil
}

// release records a button release.
func (l *inputLatch) release(player, button int) {
	l.mu.Lock()
	l.desired[buttonKey{player, button}] = false
	l.mu.Unlock()
}

// finishReactivation re-presses the button and discards the token.
func (l *inputLatch) finishReactivation(player, button int, tok *reactivateToken) {
	l.mu.Lock()
	delete(l.tokens, tok)
	l.desired[buttonKey{player, button}] = true
	l.mu.Unlock()
}

// signalTokens delivers one signal to every outstanding token. Called
// once per emulation step by the execution goroutine.
func (l *inputLatch) signalTokens() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for tok := range l.tokens {
		select {
		case tok.ch <- struct{}{}:
		default:
		}
	}
}

// apply pushes pending edge transitions into the core and prunes fully
// released entries. Called by the execution goroutine before RunFrame.
func (l *inputLatch) apply(core emucore.Core) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, want := range l.desired {
		if l.applied[k] != want {
			core.SetButton(k.player, k.button, want)
			l.applied[k] = want
		}
		if !want && !l.applied[k] {
			delete(l.desired, k)
			delete(l.applied, k)
		}
	}
}

// reassert re-presses every active button. Used after a save-state load
// or rewind, which reset the core's internal input latches.
func (l *inputLatch) reassert(core emucore.Core) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, want := range l.desired {
		if want {
			core.SetButton(k.player, k.button, true)
			l.applied[k] = true
		}
	}
}

// active returns the keys of all currently active buttons.
func (l *inputLatch) active() []buttonKey {
	l.mu.Lock()
	defer l.mu.Unlock()

	var keys []buttonKey
	for k, want := range l.desired {
		if want {
			keys = append(keys, k)
		}
	}
	return keys
}

// PressButton activates a logical button for the given player. The core
// observes the press at the next emulation step. Pressing a button that
// is already active forces a fresh edge: the button is released
// immediately and re-pressed after two scheduler iterations, on a
// separate goroutine so the caller is never blocked.
func (s *Session) PressButton(player, button int) {
	tok := s.inputs.press(player, button)
	if tok == nil {
		return
	}
	go func() {
		<-tok.ch
		<-tok.ch
		s.inputs.finishReactivation(player, button, tok)
	}()
}

// ReleaseButton deactivates a logical button for the given player.
func (s *Session) ReleaseButton(player, button int) {
	s.inputs.release(player, button)
}
