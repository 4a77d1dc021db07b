package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Codec errors.
var (
	ErrEmptyMethod    = errors.New("method name is empty")
	ErrEmptyID        = errors.New("correlation id is empty")
	ErrUnknownVariant = errors.New("unknown protocol variant")
)

// Envelope is an outbound method call before encoding.
type Envelope struct {
	// ID is the correlation id assigned by the engine.
	ID string

	// Method is the remote method name, e.g. "pool.query".
	Method string

	// Params are the positional arguments. Nil encodes as [].
	Params []any
}

func (e *Envelope) params() []any {
	if e.Params == nil {
		return []any{}
	}
	return e.Params
}

// Validate checks that the envelope can be encoded.
func (e *Envelope) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if e.Method == "" {
		return ErrEmptyMethod
	}
	return nil
}

// EncodeRequest encodes a method call for the given variant.
func EncodeRequest(env *Envelope, variant Variant) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	d, ok := dialects[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, variant)
	}
	data, err := json.Marshal(d.encode(env))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s params: %w", env.Method, err)
	}
	return data, nil
}

// EncodeConnect encodes the opening handshake message for variant.
// It returns nil, nil for variants without a handshake.
func EncodeConnect(variant Variant) ([]byte, error) {
	d, ok := dialects[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, variant)
	}
	if d.Connect == nil {
		return nil, nil
	}
	return json.Marshal(d.Connect)
}

// inbound is the union of every reply field either dialect may use.
type inbound struct {
	Msg     *string          `json:"msg"`
	ID      json.RawMessage  `json:"id"`
	Result  *json.RawMessage `json:"result"`
	Error   json.RawMessage  `json:"error"`
	Session string           `json:"session"`
	Version string           `json:"version"`
}

// Decode classifies one inbound frame. It never fails: frames that are not
// JSON objects come back as Unrecognized with a *MalformedFrameError.
func Decode(frame []byte) Reply {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Unrecognized{Raw: frame, Err: &MalformedFrameError{Raw: frame, Reason: "not a JSON object"}}
	}

	var in inbound
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return Unrecognized{Raw: frame, Err: &MalformedFrameError{Raw: frame, Reason: "invalid JSON", Err: err}}
	}

	if in.Msg != nil {
		return decodeHandshakeDialect(frame, &in)
	}
	return decodePlainDialect(frame, &in)
}

func decodeHandshakeDialect(frame []byte, in *inbound) Reply {
	switch *in.Msg {
	case msgConnected:
		return Handshake{Event: HandshakeConnected, Session: in.Session}
	case msgFailed:
		return Handshake{Event: HandshakeFailed, Version: in.Version}
	case msgResult:
		id, ok := parseID(in.ID)
		if !ok {
			break
		}
		if len(in.Error) > 0 && !isNull(in.Error) {
			return decodeError(frame, id, in.Error)
		}
		return decodeResult(frame, id, in.Result)
	case msgError:
		id, ok := parseID(in.ID)
		if !ok {
			break
		}
		return decodeError(frame, id, in.Error)
	}
	return Unrecognized{Raw: frame}
}

func decodePlainDialect(frame []byte, in *inbound) Reply {
	id, ok := parseID(in.ID)
	if !ok {
		return Unrecognized{Raw: frame}
	}
	if len(in.Error) > 0 && !isNull(in.Error) {
		return decodeError(frame, id, in.Error)
	}
	if in.Result != nil {
		return decodeResult(frame, id, in.Result)
	}
	return Unrecognized{Raw: frame}
}

func decodeResult(frame []byte, id string, raw *json.RawMessage) Reply {
	if raw == nil {
		return Result{ID: id, Value: Null}
	}
	v, err := ParseValue(*raw)
	if err != nil {
		return Unrecognized{Raw: frame, Err: &MalformedFrameError{Raw: frame, Reason: "invalid result", Err: err}}
	}
	return Result{ID: id, Value: v}
}

func decodeError(frame []byte, id string, raw json.RawMessage) Reply {
	if len(raw) == 0 || isNull(raw) {
		return Error{ID: id, Message: unknownErrorMessage, Data: Null}
	}
	v, err := ParseValue(raw)
	if err != nil {
		return Unrecognized{Raw: frame, Err: &MalformedFrameError{Raw: frame, Reason: "invalid error", Err: err}}
	}

	e := Error{ID: id, Message: unknownErrorMessage, Data: v}
	if s, ok := v.Str(); ok && s != "" {
		e.Message = s
		return e
	}
	for _, key := range []string{"message", "reason", "errname"} {
		if f, ok := v.Get(key); ok {
			if s, ok := f.Str(); ok && s != "" {
				e.Message = s
				break
			}
		}
	}
	for _, key := range []string{"code", "error"} {
		if f, ok := v.Get(key); ok {
			if n, ok := f.Int64(); ok {
				e.Code = int(n)
				e.HasCode = true
				break
			}
		}
	}
	return e
}

// unknownErrorMessage is used when an error reply carries no readable text.
const unknownErrorMessage = "Unknown error"

// parseID accepts string ids and, for interoperability, numeric ids.
func parseID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		return n.String(), true
	}
	return "", false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
