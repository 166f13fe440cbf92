package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	emucore "github.com/user-none/edrive/api"
)

// ErrCheatsUnsupported is returned when the core does not implement
// cheat support.
var ErrCheatsUnsupported = errors.New("core does not support cheats")

// CheatError reports cheat lines the core rejected. The engine is left
// synced to the accepted subset, so the error is recoverable: the caller
// may fix or deactivate the offending cheat and move on.
type CheatError struct {
	Rejected []string
}

func (e *CheatError) Error() string {
	return fmt.Sprintf("core rejected %d cheat line(s): %s", len(e.Rejected), strings.Join(e.Rejected, ", "))
}

// ActivateCheat adds a cheat to the active set and rebroadcasts the whole
// set to the core. Multi-line codes are split on newlines, one
// AddCheatCode call per line. Mutations are rare, so the full
// rebroadcast keeps the engine and the set trivially in sync.
func (s *Session) ActivateCheat(code string, kind emucore.CheatKind) error {
	if s.cheater == nil {
		return ErrCheatsUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cheats[code] = kind
	return s.syncCheatsLocked()
}

// DeactivateCheat removes a cheat from the active set and rebroadcasts.
// Deactivating an unknown code is a no-op.
func (s *Session) DeactivateCheat(code string) error {
	if s.cheater == nil {
		return ErrCheatsUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cheats[code]; !ok {
		return nil
	}
	delete(s.cheats, code)
	return s.syncCheatsLocked()
}

// ActiveCheats returns the active cheat codes, sorted.
func (s *Session) ActiveCheats() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes := make([]string, 0, len(s.cheats))
	for code := range s.cheats {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// syncCheatsLocked rebroadcasts the active set to the core with the loop
// parked. Called with s.mu held.
func (s *Session) syncCheatsLocked() error {
	var rejected []string
	s.suspendLocked(func() {
		rejected = s.applyCheats()
	})
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return &CheatError{Rejected: rejected}
	}
	return nil
}

// applyCheats resets the core's cheat engine and re-adds every active
// line, returning the rejected ones. The core must be idle.
func (s *Session) applyCheats() []string {
	var rejected []string
	s.cheater.ResetCheats()
	for code, kind := range s.cheats {
		for _, line := range strings.Split(code, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !s.cheater.AddCheatCode(line, kind) {
				rejected = append(rejected, line)
			}
		}
	}
	return rejected
}
