package truenas

import (
	"context"
	"errors"
	"fmt"

	"github.com/nasrpc/nasrpc-go/pkg/rpc"
	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// Client errors.
var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrNoCredentials = errors.New("no credentials")
)

// Credentials authenticate a session. An API key takes precedence over a
// username and password.
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

// IsZero reports whether no credentials are set.
func (c Credentials) IsZero() bool {
	return c.APIKey == "" && c.Username == ""
}

// loginCall returns the login method and its arguments.
func (c Credentials) loginCall() (string, []any) {
	if c.APIKey != "" {
		return MethodLoginWithAPIKey, []any{c.APIKey}
	}
	return MethodLogin, []any{c.Username, c.Password}
}

// Client wraps an Engine with typed middleware calls.
type Client struct {
	engine *rpc.Engine
}

// NewClient wraps an engine. The engine may or may not be connected yet.
func NewClient(e *rpc.Engine) *Client {
	return &Client{engine: e}
}

// Dial connects a new engine and, when creds are set, logs in. The engine
// is disconnected again if login fails.
func Dial(ctx context.Context, cfg rpc.Config, creds Credentials) (*Client, error) {
	e := rpc.New(cfg)
	if err := e.Connect(ctx); err != nil {
		return nil, err
	}

	c := NewClient(e)
	if creds.IsZero() {
		return c, nil
	}
	if err := c.Login(ctx, creds); err != nil {
		_ = e.Disconnect()
		return nil, err
	}
	return c, nil
}

// Engine returns the underlying engine.
func (c *Client) Engine() *rpc.Engine {
	return c.engine
}

// Close disconnects the engine and waits until state listeners and the
// protocol log have seen it close. It must not be called from a listener.
func (c *Client) Close() error {
	err := c.engine.Disconnect()
	<-c.engine.Done()
	return err
}

// Login authenticates the session. The server answers true on success;
// any other result is ErrAuthFailed.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	if creds.IsZero() {
		return ErrNoCredentials
	}
	method, args := creds.loginCall()

	v, err := c.engine.Call(ctx, method, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if ok, isBool := v.Bool(); !isBool || !ok {
		return ErrAuthFailed
	}
	return nil
}

// Call issues a raw call.
func (c *Client) Call(ctx context.Context, method string, args ...any) (wire.Value, error) {
	return c.engine.Call(ctx, method, args...)
}

// callInto issues a call and decodes the result into out.
func (c *Client) callInto(ctx context.Context, out any, method string, args ...any) error {
	v, err := c.engine.Call(ctx, method, args...)
	if err != nil {
		return err
	}
	if err := v.Decode(out); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}
