package transport

import (
	"context"
	"iter"
)

// Dialer opens connections. Implemented by WebSocketDialer.
type Dialer interface {
	// Dial connects to address. The returned Conn is open and ready to send.
	Dial(ctx context.Context, address string) (Conn, error)
}

// Conn is one open, message-oriented duplex connection.
// Implemented by the connections returned from WebSocketDialer.
type Conn interface {
	// Send writes one frame. Safe for concurrent use. Fails with
	// ErrConnectionClosed once the connection is closed.
	Send(data []byte) error

	// Frames returns the sequence of received frames. The sequence ends when
	// the connection closes; the terminal error is yielded once with a nil
	// frame. Only one sequence may be iterated at a time.
	Frames() iter.Seq2[[]byte, error]

	// Close closes the connection. Idempotent.
	Close() error
}

// Pinger is implemented by connections that support liveness pings.
type Pinger interface {
	// Ping sends a ping control frame carrying seq.
	Ping(seq uint32) error

	// OnPong registers the callback for received pongs.
	OnPong(fn func(seq uint32))
}

// Compile-time interface satisfaction checks.
var (
	_ Dialer = (*WebSocketDialer)(nil)
	_ Conn   = (*wsConn)(nil)
	_ Pinger = (*wsConn)(nil)
)
