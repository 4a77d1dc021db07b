// Package log records what an RPC engine puts on and takes off the socket.
//
// The trace is independent of the operational slog output: every frame,
// decoded call or reply, state transition, keep-alive frame and error becomes
// one Event, tagged with the connection id and the layer that saw it:
//
//   - LayerTransport: raw frames (FrameEvent), ping/pong/close (ControlMsgEvent)
//   - LayerWire: calls, replies and handshake messages (MessageEvent)
//   - LayerEngine: lifecycle transitions (StateChangeEvent)
//
// Sinks implement Logger. A typical client setup keeps a file for later
// analysis, mirrors events to the console while debugging, and strips login
// params before either sees them:
//
//	fileLogger, err := log.NewFileLogger("client.nlog", log.WithErrorLogger(slog.Default()))
//	if err != nil {
//	    return err
//	}
//	defer fileLogger.Close()
//
//	cfg.ProtocolLogger = log.NewRedactingLogger(
//	    log.NewMultiLogger(fileLogger, log.NewSlogAdapter(slog.Default())),
//	    truenas.LoginMethods...,
//	)
//
// Files hold a plain concatenation of CBOR-encoded events (.nlog). Reader
// streams them back with an optional Filter; the nasrpc-log command views,
// filters and exports them.
package log
