package log

import (
	"bytes"
	"slices"
)

// Redacted replaces the params of a redacted call.
const Redacted = "[redacted]"

// RedactingLogger hides the params of selected methods, such as login
// calls, before events reach the next logger. Both the decoded call and
// the raw outbound frame that carried it are replaced.
type RedactingLogger struct {
	next    Logger
	methods []string
	markers [][]byte
}

// NewRedactingLogger wraps next so the params of methods never reach it.
func NewRedactingLogger(next Logger, methods ...string) *RedactingLogger {
	r := &RedactingLogger{next: next, methods: methods}
	for _, m := range methods {
		r.markers = append(r.markers, []byte(`"method":"`+m+`"`))
	}
	return r
}

// Log forwards event, redacted if it carries a sensitive call.
func (r *RedactingLogger) Log(event Event) {
	if event.Direction == DirectionOut {
		if msg := event.Message; msg != nil && msg.Type == MessageTypeCall && slices.Contains(r.methods, msg.Method) {
			redacted := *msg
			redacted.Payload = Redacted
			event.Message = &redacted
		}
		if f := event.Frame; f != nil && r.carriesSensitiveCall(f.Data) {
			event.Frame = &FrameEvent{Size: f.Size, Data: []byte(Redacted)}
		}
	}
	r.next.Log(event)
}

func (r *RedactingLogger) carriesSensitiveCall(frame []byte) bool {
	for _, m := range r.markers {
		if bytes.Contains(frame, m) {
			return true
		}
	}
	return false
}

var _ Logger = (*RedactingLogger)(nil)
