package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// An .nlog file is a plain concatenation of CBOR-encoded events: integer
// map keys, RFC 3339 timestamps with nanoseconds, no framing between
// records.
var (
	eventEncMode cbor.EncMode
	eventDecMode cbor.DecMode
)

// Decode limits. nasrpc-log opens files copied from other machines, so a
// corrupt or hostile record must fail instead of allocating without bound.
// Real events nest three levels deep and carry fewer than ten fields.
const (
	maxNestedLevels = 16
	maxMapPairs     = 64
	maxArrayLength  = 1024
)

func init() {
	var err error

	eventEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: event encoder mode: %v", err))
	}

	eventDecMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyQuiet,
		IndefLength:      cbor.IndefLengthAllowed,
		MaxNestedLevels:  maxNestedLevels,
		MaxMapPairs:      maxMapPairs,
		MaxArrayElements: maxArrayLength,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: event decoder mode: %v", err))
	}
}

// EncodeEvent returns one event as a self-contained CBOR record.
func EncodeEvent(event Event) ([]byte, error) {
	data, err := eventEncMode.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

// DecodeEvent decodes exactly one record. Use a Reader for whole files.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// NewEncoder returns a stream encoder writing records to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return eventEncMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading records from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return eventDecMode.NewDecoder(r)
}
