package log

// Logger receives protocol events from an engine. Log is called from the
// goroutine issuing a call, from the receive loop and from the state
// delivery goroutine, so implementations must be safe for concurrent use.
// Replies wait while Log runs.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// enabled reports whether l records anything at all.
func enabled(l Logger) bool {
	switch v := l.(type) {
	case nil, NoopLogger, *NoopLogger:
		return false
	case *FileLogger:
		return v != nil
	case *SlogAdapter:
		return v != nil
	case *MultiLogger:
		return v != nil && len(v.loggers) > 0
	}
	return true
}

var _ Logger = NoopLogger{}
