// Package mockserver provides an in-process WebSocket RPC server for tests.
// It speaks both protocol dialects and answers calls from registered
// handlers.
package mockserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// HandshakeMode controls how the server answers the connect message.
type HandshakeMode int

const (
	// HandshakeAccept answers with "connected".
	HandshakeAccept HandshakeMode = iota
	// HandshakeReject answers with "failed".
	HandshakeReject
	// HandshakeSilent never answers.
	HandshakeSilent
)

// Handler answers one call. A non-nil *Error becomes an error reply.
type Handler func(params []json.RawMessage) (any, *Error)

// Error is an error reply.
type Error struct {
	Code    int
	Message string
}

// Standard error codes used by the built-in handlers.
const (
	CodeMethodNotFound = -32601
	CodeNotAuthorized  = 13
)

// Request is a call the server received.
type Request struct {
	ID     string
	Method string
	Params []json.RawMessage
}

// Option configures a Server.
type Option func(*Server)

// WithHandshake sets the answer to the connect message.
func WithHandshake(mode HandshakeMode) Option {
	return func(s *Server) { s.handshake = mode }
}

// WithTLS serves over TLS with the httptest certificate.
func WithTLS() Option {
	return func(s *Server) { s.tls = true }
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server is a scriptable RPC server.
type Server struct {
	variant   wire.Variant
	handshake HandshakeMode
	tls       bool
	logger    *slog.Logger

	httpServer *httptest.Server
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	handlers map[string]Handler
	requests []Request
	conns    map[*websocket.Conn]struct{}
}

// New starts a server for variant. Close it when done.
func New(variant wire.Variant, opts ...Option) *Server {
	s := &Server{
		variant:  variant,
		logger:   slog.New(slog.DiscardHandler),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		handlers: make(map[string]Handler),
		conns:    make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(variant.DefaultPath(), s.serveWS)
	if s.tls {
		s.httpServer = httptest.NewTLSServer(mux)
	} else {
		s.httpServer = httptest.NewServer(mux)
	}
	return s
}

// URL returns the WebSocket URL including the dialect's path.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http") + s.variant.DefaultPath()
}

// HostPort returns the listener address without scheme or path.
func (s *Server) HostPort() string {
	return s.httpServer.Listener.Addr().String()
}

// HTTPServer exposes the underlying test server (for its TLS certificate).
func (s *Server) HTTPServer() *httptest.Server {
	return s.httpServer
}

// Handle registers h for method.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// HandleResult makes method always return result.
func (s *Server) HandleResult(method string, result any) {
	s.Handle(method, func([]json.RawMessage) (any, *Error) { return result, nil })
}

// HandleError makes method always fail with message.
func (s *Server) HandleError(method string, code int, message string) {
	s.Handle(method, func([]json.RawMessage) (any, *Error) {
		return nil, &Error{Code: code, Message: message}
	})
}

// HandleLogin registers auth.login and auth.login_with_api_key. They return
// true only for the given credentials.
func (s *Server) HandleLogin(username, password, apiKey string) {
	s.Handle("auth.login", func(params []json.RawMessage) (any, *Error) {
		var u, p string
		if len(params) == 2 {
			_ = json.Unmarshal(params[0], &u)
			_ = json.Unmarshal(params[1], &p)
		}
		return u == username && p == password, nil
	})
	s.Handle("auth.login_with_api_key", func(params []json.RawMessage) (any, *Error) {
		var k string
		if len(params) == 1 {
			_ = json.Unmarshal(params[0], &k)
		}
		return apiKey != "" && k == apiKey, nil
	})
}

// Requests returns the calls received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Methods returns the method names received so far, in arrival order.
func (s *Server) Methods() []string {
	reqs := s.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method
	}
	return out
}

// DropConnections closes every client socket without a close frame.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.NetConn().Close()
	}
}

// Close drops all connections and stops the server.
func (s *Server) Close() {
	s.DropConnections()
	s.httpServer.Close()
}
