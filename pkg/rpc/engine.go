package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nasrpc/nasrpc-go/pkg/log"
	"github.com/nasrpc/nasrpc-go/pkg/pending"
	"github.com/nasrpc/nasrpc-go/pkg/transport"
	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// DefaultHandshakeTimeout bounds the wait for "connected".
const DefaultHandshakeTimeout = 10 * time.Second

// Config configures an Engine.
type Config struct {
	// Address is the server address, e.g. "nas.local" or
	// "wss://10.0.0.5/api/current".
	Address string

	// Variant selects the protocol dialect.
	Variant wire.Variant

	// Dialer opens the connection. Nil uses a WebSocketDialer with the
	// variant's default path.
	Dialer transport.Dialer

	// IDs generates correlation ids. Nil uses sequential ids for the plain
	// variant and UUIDs for the handshake variant.
	IDs pending.IDGenerator

	// HandshakeTimeout bounds the wait for "connected" (default: 10s).
	// A negative value waits until the context is done.
	HandshakeTimeout time.Duration

	// CallTimeout bounds each Call (0 = no timeout).
	CallTimeout time.Duration

	// KeepAlive enables ping/pong liveness checks when non-nil.
	KeepAlive *transport.KeepAliveConfig

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// ProtocolLogger receives protocol events (optional).
	ProtocolLogger log.Logger
}

// Engine issues calls over one connection and correlates the replies.
// An Engine is single use: after it closes, create a new one.
type Engine struct {
	cfg    Config
	dialer transport.Dialer
	logger *slog.Logger
	plog   log.Logger
	connID string
	table  *pending.Table

	mu        sync.RWMutex
	state     State
	conn      transport.Conn
	keepAlive *transport.KeepAlive
	closeErr  error
	listeners []func(old, new State)

	// changes holds transitions not yet delivered, in the order they
	// happened. delivering is set while a goroutine drains it.
	changes    []stateChange
	delivering bool

	// sendMu keeps frames on the wire in Go invocation order.
	sendMu sync.Mutex

	handshake    chan error
	done         chan struct{}
	loopDone     chan struct{}
	loopStarted  bool
	teardownOnce sync.Once
}

// New creates an idle engine.
func New(cfg Config) *Engine {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &transport.WebSocketDialer{DefaultPath: cfg.Variant.DefaultPath()}
	}

	ids := cfg.IDs
	if ids == nil {
		if cfg.Variant.RequiresHandshake() {
			ids = pending.NewUUIDs()
		} else {
			ids = pending.NewSequentialIDs()
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	connID := uuid.NewString()

	return &Engine{
		cfg:       cfg,
		dialer:    dialer,
		logger:    logger.With("conn", connID[:8]),
		plog:      cfg.ProtocolLogger,
		connID:    connID,
		table:     pending.NewTable(ids),
		handshake: make(chan error, 1),
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
}

// Connect opens the connection and, for the handshake variant, waits for
// the server's acknowledgement. It returns nil once the engine is Ready.
func (e *Engine) Connect(ctx context.Context) error {
	if !e.transition(StateIdle, StateConnecting, "connect") {
		return ErrAlreadyStarted
	}

	e.logger.Debug("dialing", "address", e.cfg.Address, "variant", e.cfg.Variant.String())

	conn, err := e.dialer.Dial(ctx, e.cfg.Address)
	if err != nil {
		cerr := &ConnectionError{Address: e.cfg.Address, Err: err}
		e.teardown(cerr)
		return cerr
	}

	e.mu.Lock()
	if e.state != StateConnecting {
		// Disconnected while dialing.
		e.mu.Unlock()
		_ = conn.Close()
		return &ConnectionError{Address: e.cfg.Address, Err: ErrConnectionClosed}
	}
	e.conn = conn
	e.keepAlive = e.newKeepAlive(conn)
	e.mu.Unlock()

	// The loop may close the engine before the next transition; the
	// failed transition then reports it.
	e.startLoops(conn)

	if !e.cfg.Variant.RequiresHandshake() {
		if !e.transition(StateConnecting, StateReady, "socket open") {
			return &ConnectionError{Address: e.cfg.Address, Err: e.closedCause()}
		}
		return nil
	}

	if !e.transition(StateConnecting, StateAwaitingHandshakeAck, "socket open") {
		return &ConnectionError{Address: e.cfg.Address, Err: e.closedCause()}
	}
	return e.awaitHandshake(ctx, conn)
}

func (e *Engine) awaitHandshake(ctx context.Context, conn transport.Conn) error {
	data, err := wire.EncodeConnect(e.cfg.Variant)
	if err == nil {
		e.logMessage(log.DirectionOut, &log.MessageEvent{Type: log.MessageTypeHandshake, Payload: string(data)})
		err = e.send(conn, data)
	}
	if err != nil {
		herr := &HandshakeError{Reason: "sending connect message", Err: err}
		e.teardown(herr)
		return herr
	}

	var timeout <-chan time.Time
	if e.cfg.HandshakeTimeout > 0 {
		timer := time.NewTimer(e.cfg.HandshakeTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-e.handshake:
		if err != nil {
			e.teardown(err)
		}
		return err
	case <-e.done:
		select {
		case err := <-e.handshake:
			if err != nil {
				return err
			}
		default:
		}
		return &HandshakeError{Reason: "connection closed before acknowledgement", Err: e.Err()}
	case <-timeout:
		herr := &HandshakeError{Reason: "no acknowledgement after " + e.cfg.HandshakeTimeout.String(), Err: ErrHandshakeTimeout}
		e.teardown(herr)
		return herr
	case <-ctx.Done():
		herr := &HandshakeError{Reason: "cancelled", Err: ctx.Err()}
		e.teardown(herr)
		return herr
	}
}

// Go sends a call and returns it without waiting. It fails with
// ErrNotConnected unless the engine is Ready; nothing is queued. A write
// failure returns a *SendError, or a *ConnectionClosedError if the socket
// was already gone.
func (e *Engine) Go(method string, args ...any) (*pending.Call, error) {
	if args == nil {
		args = []any{}
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	e.mu.RLock()
	if e.state != StateReady {
		e.mu.RUnlock()
		return nil, ErrNotConnected
	}
	call, err := e.table.Register(method)
	conn := e.conn
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	env := &wire.Envelope{ID: call.ID, Method: method, Params: args}
	data, err := wire.EncodeRequest(env, e.cfg.Variant)
	if err == nil {
		err = e.send(conn, data)
	}
	if err != nil {
		var serr error = &SendError{ID: call.ID, Method: method, Err: err}
		if errors.Is(err, transport.ErrConnectionClosed) {
			serr = &ConnectionClosedError{Cause: err}
		}
		if !e.table.Fail(call.ID, serr) {
			// Drained by a concurrent close; report that instead.
			<-call.Done()
			_, cerr := call.Result()
			return nil, cerr
		}
		e.logger.Debug("send failed", "id", call.ID, "method", method, "error", err)
		return nil, serr
	}

	if e.plog != nil {
		params, _ := json.Marshal(env.Params)
		e.logMessage(log.DirectionOut, &log.MessageEvent{
			Type:          log.MessageTypeCall,
			CorrelationID: call.ID,
			Method:        method,
			Payload:       string(params),
		})
	}
	return call, nil
}

// Call sends a call and waits for its outcome. A context cancellation or
// Config.CallTimeout fails only this call.
func (e *Engine) Call(ctx context.Context, method string, args ...any) (wire.Value, error) {
	call, err := e.Go(method, args...)
	if err != nil {
		return wire.Null, err
	}
	return e.Wait(ctx, call)
}

// Wait waits for a call returned by Go. If ctx is done or the call timeout
// expires first, the call is removed and fails with that error.
func (e *Engine) Wait(ctx context.Context, call *pending.Call) (wire.Value, error) {
	var timeout <-chan time.Time
	if e.cfg.CallTimeout > 0 {
		timer := time.NewTimer(e.cfg.CallTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-call.Done():
	case <-timeout:
		if e.table.Fail(call.ID, ErrCallTimeout) {
			e.logger.Debug("call timed out", "id", call.ID, "method", call.Method)
		}
		<-call.Done()
	case <-ctx.Done():
		e.table.Fail(call.ID, ctx.Err())
		<-call.Done()
	}
	return call.Result()
}

// Disconnect closes the connection and fails every outstanding call with a
// ConnectionClosedError. It waits for the receive loop to exit but not for
// state listeners; wait on Done for that. It may be called from a listener.
func (e *Engine) Disconnect() error {
	e.teardown(nil)

	e.mu.RLock()
	started := e.loopStarted
	e.mu.RUnlock()
	if started {
		<-e.loopDone
	}
	return nil
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Pending returns the number of outstanding calls.
func (e *Engine) Pending() int {
	return e.table.Len()
}

// Outstanding returns the sorted ids of outstanding calls.
func (e *Engine) Outstanding() []string {
	return e.table.Outstanding()
}

func (e *Engine) closedCause() error {
	if err := e.Err(); err != nil {
		return err
	}
	return ErrConnectionClosed
}

// Done is closed once the engine is Closed and the Closed transition has
// been delivered to listeners and the protocol log.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns why the engine closed. It is nil while open and after a
// local Disconnect.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closeErr
}

// ConnectionID identifies this engine in protocol logs.
func (e *Engine) ConnectionID() string {
	return e.connID
}

// Variant returns the configured protocol variant.
func (e *Engine) Variant() wire.Variant {
	return e.cfg.Variant
}

// OnStateChange registers fn to be called after every state transition.
// Listeners run one at a time on a delivery goroutine, in transition order,
// and must not block.
func (e *Engine) OnStateChange(fn func(old, new State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// transition moves from -> to if the engine is in from.
func (e *Engine) transition(from, to State, reason string) bool {
	e.mu.Lock()
	if e.state != from || !canTransition(from, to) {
		e.mu.Unlock()
		return false
	}
	e.state = to
	start := e.queueChange(stateChange{from: from, to: to, reason: reason})
	e.mu.Unlock()

	if start {
		go e.deliverChanges()
	}
	return true
}

type stateChange struct {
	from, to State
	reason   string
}

// queueChange appends c to the delivery queue. e.mu must be held. It
// reports whether the caller has to start a delivery goroutine.
func (e *Engine) queueChange(c stateChange) bool {
	e.changes = append(e.changes, c)
	if e.delivering {
		return false
	}
	e.delivering = true
	return true
}

// deliverChanges drains the queue until it is empty.
func (e *Engine) deliverChanges() {
	for {
		e.mu.Lock()
		if len(e.changes) == 0 {
			e.delivering = false
			e.mu.Unlock()
			return
		}
		c := e.changes[0]
		e.changes = e.changes[1:]
		listeners := slices.Clone(e.listeners)
		e.mu.Unlock()

		e.notify(c, listeners)
		if c.to == StateClosed {
			close(e.done)
		}
	}
}

func (e *Engine) notify(c stateChange, listeners []func(old, new State)) {
	e.logger.Debug("state change", "from", c.from.String(), "state", c.to.String(), "reason", c.reason)
	e.logEvent(log.Event{
		Layer:       log.LayerEngine,
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{OldState: c.from.String(), NewState: c.to.String(), Reason: c.reason},
	})
	for _, fn := range listeners {
		fn(c.from, c.to)
	}
}

// teardown closes the engine exactly once.
func (e *Engine) teardown(cause error) {
	e.teardownOnce.Do(func() {
		e.mu.Lock()
		from := e.state
		e.state = StateClosed
		e.closeErr = cause
		conn := e.conn
		ka := e.keepAlive
		e.mu.Unlock()

		if ka != nil {
			ka.Stop()
		}
		if conn != nil {
			_ = conn.Close()
		}

		n := e.table.DrainAll(&ConnectionClosedError{Cause: cause})

		reason := "disconnect"
		if cause != nil {
			reason = cause.Error()
			e.logger.Warn("connection closed", "state", from.String(), "pending", n, "error", cause)
		} else {
			e.logger.Debug("connection closed", "state", from.String(), "pending", n)
		}

		// Queued after the drain so Done never closes before the calls fail.
		e.mu.Lock()
		start := e.queueChange(stateChange{from: from, to: StateClosed, reason: reason})
		e.mu.Unlock()
		if start {
			go e.deliverChanges()
		}
	})
}

func (e *Engine) startLoops(conn transport.Conn) {
	e.mu.Lock()
	e.loopStarted = true
	ka := e.keepAlive
	e.mu.Unlock()

	go e.receiveLoop(conn)
	if ka != nil {
		ka.Start(context.Background())
	}
}

func (e *Engine) send(conn transport.Conn, data []byte) error {
	if err := conn.Send(data); err != nil {
		return err
	}
	if e.plog != nil {
		e.logEvent(log.Event{
			Direction: log.DirectionOut,
			Layer:     log.LayerTransport,
			Category:  log.CategoryMessage,
			Frame:     log.NewFrameEvent(data, 0),
		})
	}
	return nil
}

func (e *Engine) receiveLoop(conn transport.Conn) {
	defer close(e.loopDone)

	for frame, err := range conn.Frames() {
		if err != nil {
			if errors.Is(err, transport.ErrConnectionClosed) {
				e.teardown(err)
			} else {
				e.logEvent(log.Event{
					Direction: log.DirectionIn,
					Layer:     log.LayerTransport,
					Category:  log.CategoryError,
					Error:     &log.ErrorEventData{Layer: log.LayerTransport, Message: err.Error(), Context: "read"},
				})
				e.teardown(err)
			}
			return
		}

		if e.plog != nil {
			e.logEvent(log.Event{
				Direction: log.DirectionIn,
				Layer:     log.LayerTransport,
				Category:  log.CategoryMessage,
				Frame:     log.NewFrameEvent(frame, 0),
			})
		}
		e.dispatch(wire.Decode(frame))
	}

	e.teardown(transport.ErrConnectionClosed)
}

func (e *Engine) dispatch(reply wire.Reply) {
	switch r := reply.(type) {
	case wire.Result:
		e.resolve(r.ID, pending.Outcome{Value: r.Value}, &log.MessageEvent{
			Type:    log.MessageTypeResult,
			Payload: r.Value.String(),
		})

	case wire.Error:
		rerr := newRemoteError(r)
		e.resolve(r.ID, pending.Outcome{Err: rerr}, &log.MessageEvent{
			Type:         log.MessageTypeError,
			Payload:      r.Data.String(),
			ErrorMessage: r.Message,
		})

	case wire.Handshake:
		e.handleHandshake(r)

	case wire.Unrecognized:
		if r.Err != nil {
			e.logger.Debug("discarding malformed frame", "size", len(r.Raw), "error", r.Err)
			e.logEvent(log.Event{
				Direction: log.DirectionIn,
				Layer:     log.LayerWire,
				Category:  log.CategoryError,
				Error:     &log.ErrorEventData{Layer: log.LayerWire, Message: r.Err.Error(), Context: "decode"},
			})
			return
		}
		e.logger.Debug("discarding unrecognized frame", "size", len(r.Raw))
		e.logMessage(log.DirectionIn, &log.MessageEvent{Type: log.MessageTypeUnrecognized, Payload: string(r.Raw)})
	}
}

func (e *Engine) resolve(id string, o pending.Outcome, msg *log.MessageEvent) {
	call, ok := e.table.Lookup(id)
	if !ok || !e.table.Resolve(id, o) {
		e.logger.Debug("dropping reply for unknown id", "id", id)
		return
	}

	if e.plog != nil {
		rt := call.Elapsed()
		msg.CorrelationID = id
		msg.Method = call.Method
		msg.RoundTrip = &rt
		e.logMessage(log.DirectionIn, msg)
	}
}

func (e *Engine) handleHandshake(h wire.Handshake) {
	e.logMessage(log.DirectionIn, &log.MessageEvent{Type: log.MessageTypeHandshake, Payload: h.Event.String()})

	if e.State() != StateAwaitingHandshakeAck {
		e.logger.Debug("ignoring handshake message", "event", h.Event.String(), "state", e.State().String())
		return
	}

	switch h.Event {
	case wire.HandshakeConnected:
		if e.transition(StateAwaitingHandshakeAck, StateReady, "connected") {
			e.signalHandshake(nil)
		}
	case wire.HandshakeFailed:
		reason := "server rejected protocol version " + wire.HandshakeVersion
		if h.Version != "" {
			reason += ", proposed " + h.Version
		}
		herr := &HandshakeError{Reason: reason, Err: ErrHandshakeRejected}
		e.signalHandshake(herr)
		e.teardown(herr)
	}
}

func (e *Engine) signalHandshake(err error) {
	select {
	case e.handshake <- err:
	default:
	}
}

func (e *Engine) newKeepAlive(conn transport.Conn) *transport.KeepAlive {
	if e.cfg.KeepAlive == nil {
		return nil
	}
	p, ok := conn.(transport.Pinger)
	if !ok {
		return nil
	}

	ka := transport.NewConnKeepAlive(loggedPinger{Pinger: p, e: e}, *e.cfg.KeepAlive, func() {
		e.teardown(ErrKeepAliveTimeout)
	})
	ka.SetPongReceivedCallback(func(seq uint32, latency time.Duration) {
		e.logEvent(log.Event{
			Direction:  log.DirectionIn,
			Layer:      log.LayerTransport,
			Category:   log.CategoryControl,
			ControlMsg: &log.ControlMsgEvent{Type: log.ControlMsgPong, Sequence: &seq, Latency: &latency},
		})
	})
	return ka
}

// loggedPinger records outbound pings in the protocol log.
type loggedPinger struct {
	transport.Pinger
	e *Engine
}

func (p loggedPinger) Ping(seq uint32) error {
	p.e.logEvent(log.Event{
		Direction:  log.DirectionOut,
		Layer:      log.LayerTransport,
		Category:   log.CategoryControl,
		ControlMsg: &log.ControlMsgEvent{Type: log.ControlMsgPing, Sequence: &seq},
	})
	return p.Pinger.Ping(seq)
}

func (e *Engine) logMessage(dir log.Direction, msg *log.MessageEvent) {
	e.logEvent(log.Event{
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message:   msg,
	})
}

func (e *Engine) logEvent(event log.Event) {
	if e.plog == nil {
		return
	}
	event.Timestamp = time.Now()
	event.ConnectionID = e.connID
	event.RemoteAddr = e.cfg.Address
	event.Variant = e.cfg.Variant.String()
	e.plog.Log(event)
}
