package mockserver

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

func dialRaw(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(s.URL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, frame string) map[string]any {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var reply map[string]any
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestPlainReplies(t *testing.T) {
	s := New(wire.VariantPlain)
	defer s.Close()
	s.HandleResult("system.info", map[string]any{"hostname": "nas"})
	s.HandleError("pool.query", CodeNotAuthorized, "denied")

	ws := dialRaw(t, s)

	reply := roundTrip(t, ws, `{"jsonrpc":"2.0","id":"1","method":"system.info","params":[]}`)
	assert.Equal(t, "2.0", reply["jsonrpc"])
	assert.Equal(t, "1", reply["id"])
	assert.Equal(t, map[string]any{"hostname": "nas"}, reply["result"])

	reply = roundTrip(t, ws, `{"jsonrpc":"2.0","id":"2","method":"pool.query","params":[[]]}`)
	assert.Equal(t, map[string]any{"code": float64(13), "message": "denied"}, reply["error"])

	reply = roundTrip(t, ws, `{"jsonrpc":"2.0","id":"3","method":"nope","params":[]}`)
	errObj, ok := reply["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(CodeMethodNotFound), errObj["code"])

	assert.Equal(t, []string{"system.info", "pool.query", "nope"}, s.Methods())
	reqs := s.Requests()
	require.Len(t, reqs[1].Params, 1)
	assert.JSONEq(t, `[]`, string(reqs[1].Params[0]))
}

func TestHandshakeAccept(t *testing.T) {
	s := New(wire.VariantHandshake)
	defer s.Close()
	s.HandleLogin("root", "pw", "")

	ws := dialRaw(t, s)

	// Calls before connect are ignored.
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"id":"early","msg":"method","method":"auth.login","params":[]}`)))

	reply := roundTrip(t, ws, `{"msg":"connect","version":"1","support":["1"]}`)
	assert.Equal(t, "connected", reply["msg"])

	reply = roundTrip(t, ws, `{"id":"a","msg":"method","method":"auth.login","params":["root","pw"]}`)
	assert.Equal(t, "result", reply["msg"])
	assert.Equal(t, "a", reply["id"])
	assert.Equal(t, true, reply["result"])

	reply = roundTrip(t, ws, `{"id":"b","msg":"method","method":"missing","params":[]}`)
	assert.Equal(t, "error", reply["msg"])
	errObj, ok := reply["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(CodeMethodNotFound), errObj["error"])
	assert.Equal(t, "Method not found: missing", errObj["reason"])

	assert.Equal(t, []string{"auth.login", "missing"}, s.Methods())
}

func TestHandshakeReject(t *testing.T) {
	s := New(wire.VariantHandshake, WithHandshake(HandshakeReject))
	defer s.Close()

	ws := dialRaw(t, s)
	reply := roundTrip(t, ws, `{"msg":"connect","version":"1","support":["1"]}`)
	assert.Equal(t, "failed", reply["msg"])
	assert.Equal(t, wire.HandshakeVersion, reply["version"])
}

func TestDropConnections(t *testing.T) {
	s := New(wire.VariantPlain)
	defer s.Close()

	ws := dialRaw(t, s)
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.conns) == 1
	}, time.Second, 10*time.Millisecond)

	s.DropConnections()
	_, _, err := ws.ReadMessage()
	assert.Error(t, err)
}
