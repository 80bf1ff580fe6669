// Package device owns the process-wide bound-device identity and cached mute state.
package device

import (
	"sync"
)

// NotConnectedName is the display name of an unbound identity.
const NotConnectedName = "Not connected"

// minAddressLen is the shortest dotted IPv4 address ("1.1.1.1").
const minAddressLen = 7

// Identity is the currently bound device.
type Identity struct {
	Address  string `json:"ip"`
	PlayerID string `json:"pid"`
	Name     string `json:"name"`
}

// Unbound returns the identity used before any device is found.
func Unbound() Identity {
	return Identity{Name: NotConnectedName}
}

// Bound reports whether the identity carries a usable device address.
func (i Identity) Bound() bool {
	return len(i.Address) >= minAddressLen
}

// ConnectionState is derived from the identity address.
type ConnectionState string

const (
	StateUnbound ConnectionState = "unbound"
	StateBound   ConnectionState = "bound"
)

// Connection returns the connection state of the identity.
func (i Identity) Connection() ConnectionState {
	if i.Address == "" {
		return StateUnbound
	}
	return StateBound
}

// Snapshot is a consistent copy of everything State guards.
type Snapshot struct {
	Identity   Identity        `json:"device"`
	Connection ConnectionState `json:"connection"`
	Muted      bool            `json:"muted"`
}

// ChangeKind names which part of the state changed.
type ChangeKind string

const (
	ChangeIdentity ChangeKind = "identity"
	ChangeMute     ChangeKind = "mute"
)

// State is the single synchronization boundary for identity and mute.
type State struct {
	mu       sync.Mutex
	identity Identity
	muted    bool
	onChange func(ChangeKind, Snapshot)
}

// NewState returns a state holding identity.
func NewState(identity Identity) *State {
	if identity.Name == "" && identity.Address == "" {
		identity = Unbound()
	}
	return &State{identity: identity}
}

// OnChange installs a hook invoked after every effective change, outside the lock.
func (s *State) OnChange(fn func(ChangeKind, Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Identity returns a copy of the bound identity.
func (s *State) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SetIdentity swaps in a whole new identity.
func (s *State) SetIdentity(identity Identity) {
	s.mu.Lock()
	changed := s.identity != identity
	s.identity = identity
	hook, snap := s.onChange, s.snapshotLocked()
	s.mu.Unlock()

	if changed && hook != nil {
		hook(ChangeIdentity, snap)
	}
}

// Muted returns the cached mute state.
func (s *State) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// SetMuted stores the mute state and reports whether it changed.
func (s *State) SetMuted(muted bool) bool {
	s.mu.Lock()
	changed := s.muted != muted
	s.muted = muted
	hook, snap := s.onChange, s.snapshotLocked()
	s.mu.Unlock()

	if changed && hook != nil {
		hook(ChangeMute, snap)
	}
	return changed
}

// Snapshot returns identity, connection state, and mute together.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Identity:   s.identity,
		Connection: s.identity.Connection(),
		Muted:      s.muted,
	}
}
