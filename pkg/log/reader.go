package log

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events. Zero-valued fields match everything; set fields
// must all match.
type Filter struct {
	ConnectionID string
	Direction    *Direction
	Layer        *Layer
	Category     *Category

	// TimeStart is inclusive, TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time

	// CorrelationID and Method only match message events.
	CorrelationID string
	Method        string
}

func (f *Filter) matches(event Event) bool {
	switch {
	case f.ConnectionID != "" && event.ConnectionID != f.ConnectionID,
		f.Direction != nil && event.Direction != *f.Direction,
		f.Layer != nil && event.Layer != *f.Layer,
		f.Category != nil && event.Category != *f.Category,
		f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart),
		f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	}
	if f.CorrelationID == "" && f.Method == "" {
		return true
	}
	msg := event.Message
	if msg == nil {
		return false
	}
	return (f.CorrelationID == "" || msg.CorrelationID == f.CorrelationID) &&
		(f.Method == "" || msg.Method == f.Method)
}

// DecodeError reports a record that could not be decoded. Every record
// before it was read normally; nothing after it is read.
type DecodeError struct {
	Path   string
	Record int   // zero-based
	Offset int64 // where the record starts
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: record %d at byte %d: %v", e.Path, e.Record, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Truncated reports whether the file ends inside the record, as it does
// when the writing process was killed.
func (e *DecodeError) Truncated() bool {
	return errors.Is(e.Err, io.ErrUnexpectedEOF)
}

// Reader streams events from an .nlog file.
type Reader struct {
	path    string
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
	records int
	err     error
}

// NewReader opens path for reading every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path for reading the events matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		path:    path,
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF at a clean end of file.
// After a *DecodeError every call returns the same error.
func (r *Reader) Next() (Event, error) {
	if r.err != nil {
		return Event{}, r.err
	}
	for {
		offset := int64(r.decoder.NumBytesRead())
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			r.err = &DecodeError{Path: r.path, Record: r.records, Offset: offset, Err: err}
			return Event{}, r.err
		}
		r.records++
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// All returns the remaining matching events. A *DecodeError is yielded
// once and ends the sequence.
func (r *Reader) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			event, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.file.Close()
}
