// Package protocolstate holds the per-connection protocol state machine
// (C3): a pure transition table with no I/O of its own, consumed by the
// connection driver the way the teacher's conn.Connection consults its
// own state field before dispatching a packet to a handler.
package protocolstate

import "github.com/ocraft/voxelserver/internal/errs"

// State is the connection's position in the protocol lifecycle.
type State int

const (
	Handshaking State = iota
	Status
	Login
	Configuration
	Play
	Closed
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "Handshaking"
	case Status:
		return "Status"
	case Login:
		return "Login"
	case Configuration:
		return "Configuration"
	case Play:
		return "Play"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Trigger identifies the packet kind that may move the connection out of
// its current state. Packet-id values are state-scoped in the real wire
// protocol, so the driver names the trigger semantically rather than by a
// bare id that means something different in every state.
type Trigger int

const (
	TriggerHandshakeToStatus Trigger = iota
	TriggerHandshakeToLogin
	TriggerStatusPing
	TriggerLoginAcknowledged
	TriggerFinishConfigurationAck
	TriggerDisconnect
	TriggerTransportError
)

// transitions is the table from §4.3: (from, trigger) -> to. A trigger
// absent for the current state means the packet is illegal there.
var transitions = map[State]map[Trigger]State{
	Handshaking: {
		TriggerHandshakeToStatus: Status,
		TriggerHandshakeToLogin:  Login,
	},
	Status: {
		TriggerStatusPing: Closed,
	},
	Login: {
		TriggerLoginAcknowledged: Configuration,
	},
	Configuration: {
		TriggerFinishConfigurationAck: Play,
	},
	Play: {},
}

// Machine is the mutable state holder a connection driver owns. It never
// touches the network; callers decide which Trigger a decoded packet
// corresponds to and report it here.
type Machine struct {
	current State
}

// New starts a Machine in the Handshaking state, the only valid initial
// state per §4.1.
func New() *Machine {
	return &Machine{current: Handshaking}
}

// Current returns the machine's present state.
func (m *Machine) Current() State {
	return m.current
}

// Apply advances the machine on trigger, or returns a ProtocolViolation
// if trigger is not valid from the current state. TriggerDisconnect and
// TriggerTransportError are accepted from any state, matching the "any ->
// Closed" row of the table.
func (m *Machine) Apply(trigger Trigger) error {
	if m.current == Closed {
		return &errs.ProtocolViolation{Reason: "connection already closed"}
	}
	if trigger == TriggerDisconnect || trigger == TriggerTransportError {
		m.current = Closed
		return nil
	}

	next, ok := transitions[m.current][trigger]
	if !ok {
		return &errs.ProtocolViolation{Reason: "packet not valid in state " + m.current.String()}
	}
	m.current = next
	return nil
}

// Allows reports whether trigger would succeed from the current state,
// without mutating the machine. Useful for a driver that wants to decide
// whether to even attempt decoding a packet body.
func (m *Machine) Allows(trigger Trigger) bool {
	if m.current == Closed {
		return false
	}
	if trigger == TriggerDisconnect || trigger == TriggerTransportError {
		return true
	}
	_, ok := transitions[m.current][trigger]
	return ok
}
