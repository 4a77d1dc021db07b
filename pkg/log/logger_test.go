package log

import (
	"testing"
	"time"
)

func TestNoopLoggerAcceptsEngineEvents(t *testing.T) {
	var logger NoopLogger
	for _, ev := range sessionEvents("conn-a", "1", time.Now()) {
		logger.Log(ev)
	}
	logger.Log(Event{})
}

func TestEnabled(t *testing.T) {
	var nilFile *FileLogger
	var nilAdapter *SlogAdapter
	var nilMulti *MultiLogger

	tests := []struct {
		name   string
		logger Logger
		want   bool
	}{
		{"nil", nil, false},
		{"noop", NoopLogger{}, false},
		{"noop pointer", &NoopLogger{}, false},
		{"nil file logger", nilFile, false},
		{"nil slog adapter", nilAdapter, false},
		{"nil multi logger", nilMulti, false},
		{"empty multi logger", NewMultiLogger(NoopLogger{}), false},
		{"multi logger", NewMultiLogger(&recorder{}), true},
		{"recorder", &recorder{}, true},
		{"redacting", NewRedactingLogger(&recorder{}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enabled(tt.logger); got != tt.want {
				t.Errorf("enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
