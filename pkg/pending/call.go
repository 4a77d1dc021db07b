package pending

import (
	"context"
	"sync"
	"time"

	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// Outcome is how a call ended. Err is nil for a successful reply.
type Outcome struct {
	Value wire.Value
	Err   error
}

// Call is one outstanding request.
type Call struct {
	ID        string
	Method    string
	CreatedAt time.Time

	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func newCall(id, method string) *Call {
	return &Call{
		ID:        id,
		Method:    method,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// complete stores the outcome. Only the first completion counts.
func (c *Call) complete(o Outcome) bool {
	completed := false
	c.once.Do(func() {
		c.outcome = o
		close(c.done)
		completed = true
	})
	return completed
}

// Done is closed once the call has an outcome.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Resolved reports whether the call has an outcome.
func (c *Call) Resolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome. It must only be called after Done is closed;
// before that it returns a null value and nil error.
func (c *Call) Result() (wire.Value, error) {
	if !c.Resolved() {
		return wire.Null, nil
	}
	return c.outcome.Value, c.outcome.Err
}

// Wait blocks until the call resolves or ctx is done. A cancelled wait
// leaves the call outstanding; the owner of the table decides what to do
// with it.
func (c *Call) Wait(ctx context.Context) (wire.Value, error) {
	select {
	case <-c.done:
		return c.outcome.Value, c.outcome.Err
	case <-ctx.Done():
		return wire.Null, ctx.Err()
	}
}

// Elapsed returns the time since the call was registered.
func (c *Call) Elapsed() time.Duration {
	return time.Since(c.CreatedAt)
}
