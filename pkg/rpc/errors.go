package rpc

import (
	"errors"
	"fmt"

	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// Engine errors.
var (
	// ErrNotConnected is returned by Go and Call outside the Ready state.
	// Nothing is sent.
	ErrNotConnected = errors.New("not connected")

	// ErrConnectionClosed matches every *ConnectionClosedError.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrCallTimeout is returned when a call exceeds Config.CallTimeout.
	ErrCallTimeout = errors.New("call timed out")

	// ErrAlreadyStarted is returned by Connect on an engine that has
	// already been connected. Engines are single use.
	ErrAlreadyStarted = errors.New("engine already started")

	// ErrHandshakeTimeout is the cause of a HandshakeError when the server
	// never acknowledged the connect message.
	ErrHandshakeTimeout = errors.New("handshake timed out")

	// ErrHandshakeRejected is the cause of a HandshakeError when the server
	// answered the connect message with "failed".
	ErrHandshakeRejected = errors.New("handshake rejected")
)

// ConnectionError reports that the transport could not be established.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// HandshakeError reports that the connect/connected exchange did not
// complete.
type HandshakeError struct {
	Reason string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake failed: %s: %v", e.Reason, e.Err)
	}
	return "handshake failed: " + e.Reason
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// SendError reports that a call could not be written. The call was removed
// and will never resolve through the reply path.
type SendError struct {
	ID     string
	Method string
	Err    error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s (id %s): %v", e.Method, e.ID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// RemoteError is an explicit error reply from the server.
type RemoteError struct {
	// Message is the server's error text, verbatim.
	Message string

	// Code is the numeric error code, valid when HasCode is true.
	Code    int
	HasCode bool

	// Data is the full error payload.
	Data wire.Value
}

func (e *RemoteError) Error() string {
	return e.Message
}

func newRemoteError(r wire.Error) *RemoteError {
	return &RemoteError{
		Message: r.Message,
		Code:    r.Code,
		HasCode: r.HasCode,
		Data:    r.Data,
	}
}

// ConnectionClosedError fails every call still outstanding when the
// connection goes away. Cause is the reason for the close, or nil after a
// local Disconnect.
type ConnectionClosedError struct {
	Cause error
}

func (e *ConnectionClosedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection closed: %v", e.Cause)
	}
	return "connection closed"
}

func (e *ConnectionClosedError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrConnectionClosed) true.
func (e *ConnectionClosedError) Is(target error) bool {
	return target == ErrConnectionClosed
}

// IsRemote reports whether err is an explicit error reply.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// ErrKeepAliveTimeout is the close cause when the peer stops answering
// pings.
var ErrKeepAliveTimeout = errors.New("keep-alive timed out")
