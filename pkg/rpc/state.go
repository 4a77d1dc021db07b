package rpc

// State is the lifecycle state of an Engine.
type State int

const (
	// StateIdle means Connect has not been called.
	StateIdle State = iota

	// StateConnecting means the socket is being opened.
	StateConnecting

	// StateAwaitingHandshakeAck means the connect message was sent and the
	// engine is waiting for "connected".
	StateAwaitingHandshakeAck

	// StateReady means calls may be issued.
	StateReady

	// StateClosed is terminal.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateAwaitingHandshakeAck:
		return "AWAITING_HANDSHAKE_ACK"
	case StateReady:
		return "READY"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// canTransition reports whether from -> to is a legal transition.
func canTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateConnecting
	case StateConnecting:
		return to == StateReady || to == StateAwaitingHandshakeAck || to == StateClosed
	case StateAwaitingHandshakeAck:
		return to == StateReady || to == StateClosed
	case StateReady:
		return to == StateClosed
	default:
		return false
	}
}
