package session

// State represents the run state of a session.
type State int32

const (
	// StateStopped is the initial and terminal state: no execution
	// goroutine is running. A stopped session can be started again.
	StateStopped State = iota
	// StateRunning means the execution goroutine is stepping the core.
	StateRunning
	// StatePaused means the session is suspended: no goroutine, no step
	// calls, audio silenced.
	StatePaused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}
