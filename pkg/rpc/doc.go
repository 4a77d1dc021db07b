// Package rpc implements the client call engine.
//
// An Engine owns one connection. It runs the connection state machine
// (Idle, Connecting, AwaitingHandshakeAck, Ready, Closed), assigns each
// outbound call a correlation id, and resolves the call when the reply
// carrying that id arrives. Replies may arrive in any order.
//
// Usage:
//
//	e := rpc.New(rpc.Config{Address: "nas.local", Variant: wire.VariantPlain})
//	if err := e.Connect(ctx); err != nil {
//	    return err
//	}
//	defer e.Disconnect()
//
//	info, err := e.Call(ctx, "system.info")
//
// Calls are only valid in the Ready state; anything else fails with
// ErrNotConnected and nothing is sent. When the connection closes, every
// outstanding call fails with a *ConnectionClosedError. Error replies from
// the server surface as *RemoteError with the server's message verbatim.
//
// The engine never reconnects or retries. A closed engine stays closed;
// create a new one to reconnect.
package rpc
