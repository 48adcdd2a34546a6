package session

import (
	"fmt"
	"sync"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
)

// State represents the lifecycle state of a device session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateSending
	StateCooldown
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateSending:
		return "Sending"
	case StateCooldown:
		return "Cooldown"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// StateObserver is called when a session changes state.
type StateObserver interface {
	OnSessionState(id domain.DeviceID, previous, current State, reason string)
}

// validTransition reports whether the machine may move from one state to
// another. Failed is reachable from every connected or connecting state,
// and a Failed session may start a fresh connect cycle.
func validTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateConnecting
	case StateConnecting:
		return to == StateConnected || to == StateFailed
	case StateConnected:
		return to == StateSending || to == StateFailed
	case StateSending:
		return to == StateCooldown || to == StateFailed
	case StateCooldown:
		return to == StateSending || to == StateIdle || to == StateFailed
	case StateFailed:
		return to == StateConnecting || to == StateIdle
	}
	return false
}

// machine is the guarded state holder for one session.
type machine struct {
	mu       sync.RWMutex
	state    State
	id       domain.DeviceID
	logger   ports.Logger
	observer StateObserver
}

func newMachine(id domain.DeviceID, logger ports.Logger, observer StateObserver) *machine {
	return &machine{state: StateIdle, id: id, logger: logger, observer: observer}
}

// State returns the current state.
func (m *machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// TransitionTo attempts to move to a new state.
// Returns an error if the transition is not valid.
func (m *machine) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state
	if !validTransition(oldState, newState) {
		m.mu.Unlock()
		return fmt.Errorf("%w: transition %s -> %s", domain.ErrConfiguration, oldState, newState)
	}
	m.state = newState
	m.mu.Unlock()

	// Notify outside of lock
	if m.observer != nil {
		m.observer.OnSessionState(m.id, oldState, newState, reason)
	}

	m.logger.Debug("session state",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}
