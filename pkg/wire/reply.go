package wire

import "fmt"

// Reply is one decoded inbound frame. The concrete type is one of Result,
// Error, Handshake or Unrecognized.
type Reply interface {
	reply()
}

// CorrelatedReply is a reply addressed to one outstanding call.
type CorrelatedReply interface {
	Reply
	CorrelationID() string
}

// Result is a successful reply.
type Result struct {
	ID    string
	Value Value
}

// Error is an explicit error reply.
type Error struct {
	ID      string
	Message string

	// Code is the numeric error code, valid when HasCode is true.
	Code    int
	HasCode bool

	// Data is the raw error payload as sent by the server.
	Data Value
}

// HandshakeEvent is the outcome carried by a Handshake reply.
type HandshakeEvent uint8

const (
	HandshakeConnected HandshakeEvent = iota
	HandshakeFailed
)

// String returns the event name as it appears on the wire.
func (e HandshakeEvent) String() string {
	switch e {
	case HandshakeConnected:
		return msgConnected
	case HandshakeFailed:
		return msgFailed
	default:
		return "unknown"
	}
}

// Handshake acknowledges (or rejects) the connect message.
type Handshake struct {
	Event HandshakeEvent

	// Session is the server session id, if any.
	Session string

	// Version is the version the server proposes on failure.
	Version string
}

// Unrecognized is any frame that does not match a known reply shape.
// Err is set when the frame could not be parsed at all.
type Unrecognized struct {
	Raw []byte
	Err error
}

func (Result) reply()       {}
func (Error) reply()        {}
func (Handshake) reply()    {}
func (Unrecognized) reply() {}

// CorrelationID returns the id of the call this result answers.
func (r Result) CorrelationID() string { return r.ID }

// CorrelationID returns the id of the call this error answers.
func (e Error) CorrelationID() string { return e.ID }

// MalformedFrameError describes an inbound frame that is not valid JSON or
// not a JSON object.
type MalformedFrameError struct {
	Raw    []byte
	Reason string
	Err    error
}

func (e *MalformedFrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame (%d bytes): %s: %v", len(e.Raw), e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed frame (%d bytes): %s", len(e.Raw), e.Reason)
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}
