package transport

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Transport errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrInvalidAddress   = errors.New("invalid address")
)

// Defaults for WebSocketDialer.
const (
	// DefaultHandshakeTimeout bounds the HTTP upgrade.
	DefaultHandshakeTimeout = 30 * time.Second

	// DefaultMaxMessageSize is the largest frame accepted (16 MiB).
	// Query results for large pools and datasets are big.
	DefaultMaxMessageSize = 16 << 20

	// closeGracePeriod bounds the close control frame write.
	closeGracePeriod = time.Second
)

// DialError is returned when a connection cannot be established.
type DialError struct {
	// Address is the address as given by the caller.
	Address string

	// StatusCode is the HTTP status of a rejected upgrade, or 0.
	StatusCode int

	Err error
}

func (e *DialError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("dial %s: %v (HTTP %d)", e.Address, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("dial %s: %v", e.Address, e.Err)
}

func (e *DialError) Unwrap() error {
	return e.Err
}

// WebSocketDialer dials WebSocket connections.
type WebSocketDialer struct {
	// TLSConfig is used for wss:// addresses. Nil uses Go defaults.
	TLSConfig *tls.Config

	// DefaultPath is used when the address has no path.
	DefaultPath string

	// HandshakeTimeout bounds the HTTP upgrade (default: 30s).
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each Send (0 = no timeout).
	WriteTimeout time.Duration

	// MaxMessageSize limits received frames (default: 16 MiB).
	MaxMessageSize int64

	// Header is sent with the upgrade request.
	Header http.Header
}

// Dial connects to address. Bare host names are dialed as wss:// with
// DefaultPath.
func (d *WebSocketDialer) Dial(ctx context.Context, address string) (Conn, error) {
	target, err := NormalizeAddress(address, d.DefaultPath)
	if err != nil {
		return nil, &DialError{Address: address, Err: err}
	}

	handshakeTimeout := d.HandshakeTimeout
	if handshakeTimeout == 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  d.TLSConfig,
	}

	ws, resp, err := dialer.DialContext(ctx, target, d.Header)
	if err != nil {
		dialErr := &DialError{Address: address, Err: err}
		if resp != nil {
			dialErr.StatusCode = resp.StatusCode
			resp.Body.Close()
		}
		return nil, dialErr
	}

	maxSize := d.MaxMessageSize
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	ws.SetReadLimit(maxSize)

	return newWSConn(ws, d.WriteTimeout), nil
}

// NormalizeAddress turns a user supplied address into a WebSocket URL.
//
//	nas.local              -> wss://nas.local<defaultPath>
//	http://10.0.0.5        -> ws://10.0.0.5<defaultPath>
//	https://nas/api/current -> wss://nas/api/current
func NormalizeAddress(address, defaultPath string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if !strings.Contains(address, "://") {
		address = "wss://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "http":
		u.Scheme = "ws"
	case "wss", "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidAddress, u.Scheme)
	}
	if u.Host == "" || u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidAddress)
	}
	if (u.Path == "" || u.Path == "/") && defaultPath != "" {
		u.Path = defaultPath
	}
	return u.String(), nil
}

// wsConn adapts a gorilla connection to Conn.
type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	onPong atomic.Pointer[func(seq uint32)]
}

func newWSConn(ws *websocket.Conn, writeTimeout time.Duration) *wsConn {
	c := &wsConn{
		ws:           ws,
		writeTimeout: writeTimeout,
	}
	ws.SetPongHandler(c.handlePong)
	return c
}

// Send writes data as one text message.
func (c *wsConn) Send(data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		if c.closed.Load() {
			return ErrConnectionClosed
		}
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Frames yields every received data message.
func (c *wsConn) Frames() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				yield(nil, c.readError(err))
				return
			}
			if !yield(data, nil) {
				return
			}
		}
	}
}

func (c *wsConn) readError(err error) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return fmt.Errorf("%w: peer sent close %d %q", ErrConnectionClosed, closeErr.Code, closeErr.Text)
	}
	return fmt.Errorf("read frame: %w", err)
}

// Ping sends a ping control frame carrying seq.
func (c *wsConn) Ping(seq uint32) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], seq)
	return c.ws.WriteControl(websocket.PingMessage, payload[:], time.Now().Add(closeGracePeriod))
}

// OnPong registers fn for pongs that carry a sequence number.
func (c *wsConn) OnPong(fn func(seq uint32)) {
	c.onPong.Store(&fn)
}

func (c *wsConn) handlePong(appData string) error {
	if len(appData) != 4 {
		return nil
	}
	if fn := c.onPong.Load(); fn != nil && *fn != nil {
		(*fn)(binary.BigEndian.Uint32([]byte(appData)))
	}
	return nil
}

// Close sends a normal close frame and closes the socket.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
