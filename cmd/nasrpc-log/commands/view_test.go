package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nasrpc/nasrpc-go/pkg/log"
)

var testTime = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

func TestFormatFrameEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    testTime,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame:        log.NewFrameEvent([]byte(`{"id":"1","method":"system.info"}`), 0),
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z",
		"[conn:abc12345]",
		"OUT",
		"TRANSPORT",
		"Frame",
		"33 bytes",
		`Data: {"id":"1","method":"system.info"}`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatBinaryFrameAsHex(t *testing.T) {
	event := log.Event{
		Timestamp: testTime,
		Layer:     log.LayerTransport,
		Frame:     &log.FrameEvent{Size: 3, Data: []byte{0xff, 0xfe, 0x01}, Truncated: true},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Data: fffe01 (truncated)") {
		t.Errorf("expected hex data, got: %s", output)
	}
}

func TestFormatCallEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    testTime,
		ConnectionID: "abc12345",
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:          log.MessageTypeCall,
			CorrelationID: "42",
			Method:        "pool.query",
			Payload:       `[[["name","=","tank"]]]`,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"WIRE CALL", "ID: 42", "Method: pool.query", `Payload: [[["name","=","tank"]]]`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "Duration") {
		t.Errorf("calls have no duration, got: %s", output)
	}
}

func TestFormatErrorReplyEvent(t *testing.T) {
	rtt := 1500 * time.Microsecond
	event := log.Event{
		Timestamp: testTime,
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:          log.MessageTypeError,
			CorrelationID: "7",
			Method:        "auth.login",
			ErrorMessage:  "Not authorized",
			RoundTrip:     &rtt,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"IN  WIRE ERROR", "Duration: 1.500ms", "Error: Not authorized"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	event := log.Event{
		Timestamp: testTime,
		Layer:     log.LayerEngine,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: "AWAITING_HANDSHAKE_ACK",
			NewState: "CLOSED",
			Reason:   "handshake rejected",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "ENGINE State") {
		t.Errorf("expected ENGINE State header, got: %s", output)
	}
	if !strings.Contains(output, "AWAITING_HANDSHAKE_ACK -> CLOSED") {
		t.Errorf("expected transition, got: %s", output)
	}
	if !strings.Contains(output, "Reason: handshake rejected") {
		t.Errorf("expected reason, got: %s", output)
	}
}

func TestFormatControlMsgEvent(t *testing.T) {
	seq := uint32(3)
	latency := 250 * time.Microsecond
	event := log.Event{
		Timestamp:  testTime,
		Direction:  log.DirectionIn,
		Layer:      log.LayerTransport,
		Category:   log.CategoryControl,
		ControlMsg: &log.ControlMsgEvent{Type: log.ControlMsgPong, Sequence: &seq, Latency: &latency},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"CTRL PONG", "Seq: 3", "Latency: 250.000us"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatErrorEvent(t *testing.T) {
	code := 13
	event := log.Event{
		Timestamp: testTime,
		Layer:     log.LayerEngine,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Layer: log.LayerEngine, Message: "boom", Code: &code, Context: "dispatch"},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"Message: boom", "Code: 13", "Context: dispatch"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestRunViewFiltersByMethod(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Method: "pool.query"}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	output := buf.String()

	if n := strings.Count(output, "Method: pool.query"); n != 2 {
		t.Errorf("expected call and reply, got %d in: %s", n, output)
	}
	if strings.Contains(output, "system.info") {
		t.Errorf("unexpected other method in: %s", output)
	}
}

func TestRunViewFiltersByLayer(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	layer := log.LayerEngine
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &layer}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "-> READY") {
		t.Errorf("expected state event, got: %s", output)
	}
	if strings.Contains(output, "WIRE") {
		t.Errorf("unexpected wire event in: %s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView(t.TempDir()+"/missing.nlog", ViewFilter{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseLayer(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Layer
		wantErr bool
	}{
		{"transport", log.LayerTransport, false},
		{"WIRE", log.LayerWire, false},
		{"Engine", log.LayerEngine, false},
		{"service", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLayer(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLayer(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseLayer(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDirectionAndCategory(t *testing.T) {
	if d, err := parseDirection("OUT"); err != nil || d != log.DirectionOut {
		t.Errorf("parseDirection(OUT) = %v, %v", d, err)
	}
	if _, err := parseDirection("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
	if c, err := parseCategory("state"); err != nil || c != log.CategoryState {
		t.Errorf("parseCategory(state) = %v, %v", c, err)
	}
	if _, err := parseCategory("snapshot"); err == nil {
		t.Error("expected error for invalid category")
	}
}
