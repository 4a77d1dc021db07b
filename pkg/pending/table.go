package pending

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrIDCollision is returned when the generator keeps producing ids that are
// already outstanding.
var ErrIDCollision = errors.New("correlation id generator produced only outstanding ids")

// maxIDAttempts bounds how often Register asks the generator for a free id.
const maxIDAttempts = 8

// Table maps correlation ids to outstanding calls. It is safe for
// concurrent use.
type Table struct {
	mu    sync.Mutex
	ids   IDGenerator
	calls map[string]*Call
}

// NewTable creates an empty table drawing ids from ids.
func NewTable(ids IDGenerator) *Table {
	return &Table{
		ids:   ids,
		calls: make(map[string]*Call),
	}
}

// Register allocates a fresh id and inserts a new call for method.
func (t *Table) Register(method string) (*Call, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for range maxIDAttempts {
		id := t.ids.NextID()
		if id == "" {
			continue
		}
		if _, taken := t.calls[id]; taken {
			continue
		}
		c := newCall(id, method)
		t.calls[id] = c
		return c, nil
	}
	return nil, fmt.Errorf("register %s: %w", method, ErrIDCollision)
}

// Lookup returns the outstanding call with id.
func (t *Table) Lookup(id string) (*Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[id]
	return c, ok
}

// Resolve removes the call with id and fulfils it with o. It returns false
// if no such call is outstanding. Resolve never blocks on the waiter.
func (t *Table) Resolve(id string, o Outcome) bool {
	t.mu.Lock()
	c, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	return c.complete(o)
}

// Fail is Resolve with an error outcome.
func (t *Table) Fail(id string, err error) bool {
	return t.Resolve(id, Outcome{Err: err})
}

// DrainAll fails every outstanding call with err and empties the table.
// It returns the number of calls failed.
func (t *Table) DrainAll(err error) int {
	t.mu.Lock()
	calls := t.calls
	t.calls = make(map[string]*Call)
	t.mu.Unlock()

	n := 0
	for _, c := range calls {
		if c.complete(Outcome{Err: err}) {
			n++
		}
	}
	return n
}

// Len returns the number of outstanding calls.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// Outstanding returns the sorted ids of all outstanding calls.
func (t *Table) Outstanding() []string {
	t.mu.Lock()
	ids := make([]string, 0, len(t.calls))
	for id := range t.calls {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	sort.Strings(ids)
	return ids
}
