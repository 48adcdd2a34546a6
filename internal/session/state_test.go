package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}
func (m mockLogger) With(fields ...ports.Field) ports.Logger {
	return m
}

// mockObserver tracks session state changes for testing.
type mockObserver struct {
	mu     sync.Mutex
	events []stateChange
}

type stateChange struct {
	id       domain.DeviceID
	previous State
	current  State
	reason   string
}

func (m *mockObserver) OnSessionState(id domain.DeviceID, previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChange{id, previous, current, reason})
}

func (m *mockObserver) Events() []stateChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChange{}, m.events...)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateConnecting, "Connecting"},
		{StateConnected, "Connected"},
		{StateSending, "Sending"},
		{StateCooldown, "Cooldown"},
		{StateFailed, "Failed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestMachine_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to connecting", StateIdle, StateConnecting},
		{"connecting to connected", StateConnecting, StateConnected},
		{"connecting to failed", StateConnecting, StateFailed},
		{"connected to sending", StateConnected, StateSending},
		{"connected to failed", StateConnected, StateFailed},
		{"sending to cooldown", StateSending, StateCooldown},
		{"sending to failed", StateSending, StateFailed},
		{"cooldown to sending", StateCooldown, StateSending},
		{"cooldown to idle", StateCooldown, StateIdle},
		{"cooldown to failed", StateCooldown, StateFailed},
		{"failed to connecting", StateFailed, StateConnecting},
		{"failed to idle", StateFailed, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(domain.DeviceID{}, mockLogger{}, nil)
			m.state = tt.from

			if err := m.TransitionTo(tt.to, "test"); err != nil {
				t.Errorf("TransitionTo() error = %v, want nil", err)
			}
			if m.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", m.State(), tt.to)
			}
		})
	}
}

func TestMachine_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to connected", StateIdle, StateConnected},
		{"idle to sending", StateIdle, StateSending},
		{"idle to cooldown", StateIdle, StateCooldown},
		{"connecting to sending", StateConnecting, StateSending},
		{"connecting to idle", StateConnecting, StateIdle},
		{"connected to cooldown", StateConnected, StateCooldown},
		{"connected to idle", StateConnected, StateIdle},
		{"sending to connected", StateSending, StateConnected},
		{"sending to idle", StateSending, StateIdle},
		{"cooldown to connecting", StateCooldown, StateConnecting},
		{"failed to sending", StateFailed, StateSending},
		{"failed to cooldown", StateFailed, StateCooldown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(domain.DeviceID{}, mockLogger{}, nil)
			m.state = tt.from

			err := m.TransitionTo(tt.to, "test")
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("TransitionTo() error = %v, want ErrConfiguration", err)
			}
			// State does not change on invalid transition.
			if m.State() != tt.from {
				t.Errorf("state changed to %v on invalid transition, want %v", m.State(), tt.from)
			}
		})
	}
}

func TestMachine_NotifiesObserver(t *testing.T) {
	obs := &mockObserver{}
	id := domain.MustDeviceID("AA:BB:CC:DD:EE:FF")
	m := newMachine(id, mockLogger{}, obs)

	_ = m.TransitionTo(StateConnecting, "send requested")
	_ = m.TransitionTo(StateConnected, "link established")

	events := obs.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].previous != StateIdle || events[0].current != StateConnecting {
		t.Errorf("event 0: %v->%v, want Idle->Connecting", events[0].previous, events[0].current)
	}
	if events[0].id != id {
		t.Errorf("event 0 device = %v, want %v", events[0].id, id)
	}
	if events[1].reason != "link established" {
		t.Errorf("event 1 reason = %q, want %q", events[1].reason, "link established")
	}
}
