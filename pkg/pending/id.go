package pending

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces correlation ids.
type IDGenerator interface {
	NextID() string
}

// SequentialIDs yields "1", "2", ... for the lifetime of one connection.
type SequentialIDs struct {
	next atomic.Uint64
}

// NewSequentialIDs creates a generator starting at "1".
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// NextID returns the next decimal id.
func (g *SequentialIDs) NextID() string {
	return strconv.FormatUint(g.next.Add(1), 10)
}

// UUIDs yields random version 4 UUID strings.
type UUIDs struct{}

// NewUUIDs creates a UUID generator.
func NewUUIDs() UUIDs {
	return UUIDs{}
}

// NextID returns a new random UUID.
func (UUIDs) NextID() string {
	return uuid.NewString()
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

// NextID calls f.
func (f IDGeneratorFunc) NextID() string {
	return f()
}

var (
	_ IDGenerator = (*SequentialIDs)(nil)
	_ IDGenerator = UUIDs{}
	_ IDGenerator = IDGeneratorFunc(nil)
)
