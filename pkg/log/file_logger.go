package log

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// FileLogger appends events to an .nlog file. It is safe for concurrent
// use. Each event goes out in a single write, so a session never contains
// half a record. A failed write never reaches the engine: the event is
// counted as dropped and the first failure goes to the error logger.
type FileLogger struct {
	path   string
	errLog *slog.Logger

	mu      sync.Mutex
	file    *os.File
	closed  bool
	written uint64
	dropped uint64
}

// FileLoggerOption configures a FileLogger.
type FileLoggerOption func(*FileLogger)

// WithErrorLogger reports write failures to l.
func WithErrorLogger(l *slog.Logger) FileLoggerOption {
	return func(fl *FileLogger) {
		if l != nil {
			fl.errLog = l
		}
	}
}

// NewFileLogger opens path for appending. A new file is created with mode
// 0600: call payloads may hold credentials unless a RedactingLogger sits
// in front.
func NewFileLogger(path string, opts ...FileLoggerOption) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open protocol log: %w", err)
	}
	l := &FileLogger{
		path:   path,
		errLog: slog.New(slog.DiscardHandler),
		file:   f,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file the logger appends to.
func (l *FileLogger) Path() string {
	return l.path
}

// Log appends event. Events logged after Close are ignored.
func (l *FileLogger) Log(event Event) {
	data, err := EncodeEvent(event)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err == nil {
		_, err = l.file.Write(data)
	}
	if err != nil {
		l.dropped++
		if l.dropped == 1 {
			l.errLog.Warn("protocol log write failed; further failures are only counted",
				"file", l.path, "connection", event.ConnectionID, "error", err)
		}
		return
	}
	l.written++
}

// Stats returns how many events were written and how many were dropped.
func (l *FileLogger) Stats() (written, dropped uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written, l.dropped
}

// Close closes the file. Calling it again is a no-op.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.dropped > 0 {
		l.errLog.Warn("protocol log incomplete", "file", l.path, "written", l.written, "dropped", l.dropped)
	}
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)
