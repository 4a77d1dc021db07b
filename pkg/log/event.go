package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the engine connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the dialed address.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Variant is the protocol dialect name ("jsonrpc" or "legacy").
	Variant string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Engine state
	ControlMsg  *ControlMsgEvent  `cbor:"13,keyasint,omitempty"` // Ping/pong/close
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the socket layer (raw frames).
	LayerTransport Layer = 0
	// LayerWire is the envelope layer (decoded JSON).
	LayerWire Layer = 1
	// LayerEngine is the call correlation and state machine layer.
	LayerEngine Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a call, reply or handshake message.
	CategoryMessage Category = 0
	// CategoryControl indicates a control frame (ping/pong/close).
	CategoryControl Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DefaultMaxFrameData is how many frame bytes NewFrameEvent keeps.
const DefaultMaxFrameData = 4096

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent copies at most limit bytes of data. A limit of 0 uses
// DefaultMaxFrameData.
func NewFrameEvent(data []byte, limit int) *FrameEvent {
	if limit <= 0 {
		limit = DefaultMaxFrameData
	}
	fe := &FrameEvent{Size: len(data)}
	n := len(data)
	if n > limit {
		n = limit
		fe.Truncated = true
	}
	fe.Data = append([]byte(nil), data[:n]...)
	return fe
}

// MessageEvent captures a decoded envelope at the wire layer.
type MessageEvent struct {
	// Type distinguishes calls, replies and handshake messages.
	Type MessageType `cbor:"1,keyasint"`

	// CorrelationID pairs a call with its reply (empty for handshake).
	CorrelationID string `cbor:"2,keyasint,omitempty"`

	// Method is the remote method name. Replies carry the method of the
	// call they answer.
	Method string `cbor:"3,keyasint,omitempty"`

	// Payload is the JSON text of params, result or error data.
	Payload string `cbor:"4,keyasint,omitempty"`

	// ErrorMessage is the remote error text (error replies only).
	ErrorMessage string `cbor:"5,keyasint,omitempty"`

	// RoundTrip is the time from call send to reply receipt (replies only).
	// Stored as nanoseconds.
	RoundTrip *time.Duration `cbor:"6,keyasint,omitempty"`
}

// MessageType distinguishes envelope kinds.
type MessageType uint8

const (
	// MessageTypeCall indicates an outbound method call.
	MessageTypeCall MessageType = 0
	// MessageTypeResult indicates a successful reply.
	MessageTypeResult MessageType = 1
	// MessageTypeError indicates an error reply.
	MessageTypeError MessageType = 2
	// MessageTypeHandshake indicates connect/connected/failed.
	MessageTypeHandshake MessageType = 3
	// MessageTypeUnrecognized indicates a frame that was not ours.
	MessageTypeUnrecognized MessageType = 4
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeCall:
		return "CALL"
	case MessageTypeResult:
		return "RESULT"
	case MessageTypeError:
		return "ERROR"
	case MessageTypeHandshake:
		return "HANDSHAKE"
	case MessageTypeUnrecognized:
		return "UNRECOGNIZED"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures engine lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ControlMsgEvent captures transport-level control frames.
type ControlMsgEvent struct {
	// Type of control message.
	Type ControlMsgType `cbor:"1,keyasint"`

	// Sequence is the keep-alive sequence number for ping/pong.
	Sequence *uint32 `cbor:"2,keyasint,omitempty"`

	// Latency is the ping round trip (pong only).
	Latency *time.Duration `cbor:"3,keyasint,omitempty"`
}

// ControlMsgType indicates the type of control message.
type ControlMsgType uint8

const (
	// ControlMsgPing indicates a ping message.
	ControlMsgPing ControlMsgType = 0
	// ControlMsgPong indicates a pong message.
	ControlMsgPong ControlMsgType = 1
	// ControlMsgClose indicates a close message.
	ControlMsgClose ControlMsgType = 2
)

// String returns the control message type name.
func (c ControlMsgType) String() string {
	switch c {
	case ControlMsgPing:
		return "PING"
	case ControlMsgPong:
		return "PONG"
	case ControlMsgClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
