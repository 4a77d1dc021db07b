package log

// MultiLogger sends each event to several loggers in order, typically a
// FileLogger for the session record and a SlogAdapter for the console.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers. Nil loggers, NoopLoggers and empty
// MultiLoggers are left out.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if enabled(l) {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Len returns how many loggers receive events.
func (m *MultiLogger) Len() int {
	return len(m.loggers)
}

// Log sends event to every logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
