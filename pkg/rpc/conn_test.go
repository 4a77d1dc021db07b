package rpc

import (
	"encoding/json"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nasrpc/nasrpc-go/pkg/transport"
)

// fakeConn is an in-memory transport.Conn. Frames sent by the engine land
// on sent; frames pushed with push are yielded by Frames.
type fakeConn struct {
	sent    chan []byte
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once

	mu      sync.Mutex
	sendErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		sent:    make(chan []byte, 256),
		inbound: make(chan []byte, 256),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	err := c.sendErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return transport.ErrConnectionClosed
	default:
	}
	c.sent <- append([]byte(nil), data...)
	return nil
}

func (c *fakeConn) Frames() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			select {
			case <-c.closed:
				yield(nil, transport.ErrConnectionClosed)
				return
			case f := <-c.inbound:
				if !yield(f, nil) {
					return
				}
			}
		}
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) failSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

func (c *fakeConn) push(frame string) {
	c.inbound <- []byte(frame)
}

// next returns the next frame the engine sent.
func (c *fakeConn) next(t *testing.T) []byte {
	t.Helper()
	select {
	case f := <-c.sent:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame sent")
		return nil
	}
}

// request is the union of both dialects' call envelopes.
type request struct {
	ID      string            `json:"id"`
	Msg     string            `json:"msg"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	JSONRPC string            `json:"jsonrpc"`
}

func (c *fakeConn) nextRequest(t *testing.T) request {
	t.Helper()
	var req request
	require.NoError(t, json.Unmarshal(c.next(t), &req))
	return req
}

// pingConn adds transport.Pinger to fakeConn. It never answers pings.
type pingConn struct {
	*fakeConn

	mu    sync.Mutex
	pings []uint32
}

func (c *pingConn) Ping(seq uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings = append(c.pings, seq)
	return nil
}

func (c *pingConn) OnPong(func(seq uint32)) {}

func (c *pingConn) pingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pings)
}

var (
	_ transport.Conn   = (*fakeConn)(nil)
	_ transport.Pinger = (*pingConn)(nil)
)
