package wire

import (
	"fmt"
	"strings"
)

// Variant selects the dialect used on a connection.
type Variant uint8

const (
	// VariantPlain is the JSON-RPC 2.0 style dialect. Calls are valid
	// immediately after the socket opens.
	VariantPlain Variant = iota

	// VariantHandshake is the legacy middleware dialect. The client sends a
	// connect message and must wait for "connected" before calling methods.
	VariantHandshake
)

// String returns the variant name as used in configuration files.
func (v Variant) String() string {
	switch v {
	case VariantPlain:
		return "jsonrpc"
	case VariantHandshake:
		return "legacy"
	default:
		return "unknown"
	}
}

// RequiresHandshake reports whether calls must wait for a handshake
// acknowledgement.
func (v Variant) RequiresHandshake() bool {
	return v.Dialect().Connect != nil
}

// DefaultPath is the URL path the service exposes this dialect on.
func (v Variant) DefaultPath() string {
	return v.Dialect().Path
}

// Dialect returns the encoding rules for the variant.
func (v Variant) Dialect() Dialect {
	if d, ok := dialects[v]; ok {
		return d
	}
	return dialects[VariantPlain]
}

// ParseVariant parses a variant name (case-insensitive). Both the
// configuration names and a few common aliases are accepted.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jsonrpc", "json-rpc", "plain", "2.0":
		return VariantPlain, nil
	case "legacy", "handshake", "ddp", "websocket":
		return VariantHandshake, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q (use jsonrpc or legacy)", s)
	}
}

// Dialect describes how one variant frames outbound messages.
type Dialect struct {
	// Name identifies the dialect.
	Name string

	// Path is the default URL path on the server.
	Path string

	// Connect, if non-nil, is the message sent right after the socket opens.
	// A nil Connect means no handshake.
	Connect *ConnectRequest

	// encode builds the wire object for a method call.
	encode func(env *Envelope) any
}

// ConnectRequest is the opening message of the handshake dialect.
type ConnectRequest struct {
	Msg     string   `json:"msg"`
	Version string   `json:"version"`
	Support []string `json:"support"`
}

// Protocol constants.
const (
	// JSONRPCVersion is the version tag carried by plain requests.
	JSONRPCVersion = "2.0"

	// HandshakeVersion is the protocol version offered in the connect message.
	HandshakeVersion = "1"
)

var dialects = map[Variant]Dialect{
	VariantPlain: {
		Name: "jsonrpc",
		Path: "/api/current",
		encode: func(env *Envelope) any {
			return plainRequest{
				ID:      env.ID,
				Method:  env.Method,
				Params:  env.params(),
				JSONRPC: JSONRPCVersion,
			}
		},
	},
	VariantHandshake: {
		Name: "legacy",
		Path: "/websocket",
		Connect: &ConnectRequest{
			Msg:     msgConnect,
			Version: HandshakeVersion,
			Support: []string{HandshakeVersion},
		},
		encode: func(env *Envelope) any {
			return handshakeRequest{
				ID:     env.ID,
				Msg:    msgMethod,
				Method: env.Method,
				Params: env.params(),
			}
		},
	},
}

// Handshake dialect "msg" values.
const (
	msgConnect   = "connect"
	msgConnected = "connected"
	msgFailed    = "failed"
	msgMethod    = "method"
	msgResult    = "result"
	msgError     = "error"
)

type plainRequest struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	JSONRPC string `json:"jsonrpc"`
}

type handshakeRequest struct {
	ID     string `json:"id"`
	Msg    string `json:"msg"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}
