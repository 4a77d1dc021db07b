package log

import (
	"context"
	"log/slog"
)

// SlogAdapter prints protocol events through an slog.Logger, one record
// per event. Traffic is logged at Debug; error events, error replies and
// frames the engine could not route are logged at Warn so they show up at
// the default console level.
type SlogAdapter struct {
	logger       *slog.Logger
	payloadLimit int
}

// SlogAdapterOption configures a SlogAdapter.
type SlogAdapterOption func(*SlogAdapter)

// WithPayloads adds message payloads to the output, cut to limit bytes.
func WithPayloads(limit int) SlogAdapterOption {
	return func(a *SlogAdapter) {
		a.payloadLimit = limit
	}
}

// NewSlogAdapter returns an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger, opts ...SlogAdapterOption) *SlogAdapter {
	a := &SlogAdapter{logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Log writes one record for event.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	msg := "rpc " + event.Category.String()
	attrs := make([]slog.Attr, 0, 10)
	attrs = append(attrs,
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
	)
	if event.Variant != "" {
		attrs = append(attrs, slog.String("variant", event.Variant))
	}

	switch {
	case event.Frame != nil:
		msg = "rpc frame"
		attrs = append(attrs, slog.Int("frame_size", event.Frame.Size))
		if event.Frame.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.Message != nil:
		m := event.Message
		msg = "rpc " + m.Type.String()
		if m.CorrelationID != "" {
			attrs = append(attrs, slog.String("id", m.CorrelationID))
		}
		if m.Method != "" {
			attrs = append(attrs, slog.String("method", m.Method))
		}
		if m.RoundTrip != nil {
			attrs = append(attrs, slog.Duration("round_trip", *m.RoundTrip))
		}
		if m.ErrorMessage != "" {
			attrs = append(attrs, slog.String("remote_error", m.ErrorMessage))
		}
		if a.payloadLimit > 0 && m.Payload != "" {
			attrs = append(attrs, slog.String("payload", cut(m.Payload, a.payloadLimit)))
		}
		if m.Type == MessageTypeError || m.Type == MessageTypeUnrecognized {
			level = slog.LevelWarn
		}
	case event.StateChange != nil:
		msg = "rpc state"
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.ControlMsg != nil:
		msg = "rpc " + event.ControlMsg.Type.String()
		if event.ControlMsg.Sequence != nil {
			attrs = append(attrs, slog.Uint64("seq", uint64(*event.ControlMsg.Sequence)))
		}
		if event.ControlMsg.Latency != nil {
			attrs = append(attrs, slog.Duration("latency", *event.ControlMsg.Latency))
		}
	case event.Error != nil:
		msg = "rpc error"
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("context", event.Error.Context))
		}
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func cut(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

var _ Logger = (*SlogAdapter)(nil)
