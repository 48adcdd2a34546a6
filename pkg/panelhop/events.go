package panelhop

import (
	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/session"
)

// PanelState is the lifecycle state of one panel's session.
type PanelState int

const (
	// StateIdle means no connection is open.
	StateIdle PanelState = iota

	// StateConnecting means a connect attempt is in flight.
	StateConnecting

	// StateConnected means the link is up and idle.
	StateConnected

	// StateSending means chunks are being written.
	StateSending

	// StateCooldown means the frame landed and the link lingers for
	// follow-up sends.
	StateCooldown

	// StateFailed means the last operation gave up on this panel.
	StateFailed
)

// String returns the state name used in logs.
func (s PanelState) String() string {
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
	}
	return "Unknown"
}

// PanelStateEvent reports one session state change.
type PanelStateEvent struct {
	// MAC is the panel's address.
	MAC string

	// Previous is the state the session left.
	Previous PanelState

	// Current is the state the session entered.
	Current PanelState

	// Reason is a short human explanation for the change.
	Reason string
}

// EventHandler receives notifications about panel sessions.
// Implementations must be safe for concurrent calls and should return
// quickly; slow handlers stall sends.
type EventHandler interface {
	OnPanelState(event PanelStateEvent)
}

// eventBridge adapts EventHandler to the internal session observer.
type eventBridge struct {
	handler EventHandler
}

func (e *eventBridge) OnSessionState(id domain.DeviceID, previous, current session.State, reason string) {
	e.handler.OnPanelState(PanelStateEvent{
		MAC:      id.String(),
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func convertState(s session.State) PanelState {
	switch s {
	case session.StateIdle:
		return StateIdle
	case session.StateConnecting:
		return StateConnecting
	case session.StateConnected:
		return StateConnected
	case session.StateSending:
		return StateSending
	case session.StateCooldown:
		return StateCooldown
	case session.StateFailed:
		return StateFailed
	default:
		return StateIdle
	}
}
