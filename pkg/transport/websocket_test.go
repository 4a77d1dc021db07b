package transport

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in      string
		path    string
		want    string
		wantErr bool
	}{
		{in: "nas.local", path: "/websocket", want: "wss://nas.local/websocket"},
		{in: "10.0.0.5:8443", path: "/api/current", want: "wss://10.0.0.5:8443/api/current"},
		{in: "http://10.0.0.5", path: "/websocket", want: "ws://10.0.0.5/websocket"},
		{in: "https://nas/", path: "/api/current", want: "wss://nas/api/current"},
		{in: "wss://nas/custom", path: "/websocket", want: "wss://nas/custom"},
		{in: "ws://nas", path: "", want: "ws://nas"},
		{in: "", wantErr: true},
		{in: "ftp://nas", wantErr: true},
		{in: "wss://", wantErr: true},
		{in: "ws://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeAddress(tt.in, tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// echoServer upgrades every request and echoes frames back.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			mt, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if string(data) == "bye" {
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
				return
			}
			if err := ws.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketSendAndFrames(t *testing.T) {
	srv := echoServer(t)
	d := &WebSocketDialer{DefaultPath: "/websocket", WriteTimeout: time.Second}

	conn, err := d.Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)

	require.NoError(t, conn.Send([]byte(`{"n":1}`)))
	require.NoError(t, conn.Send([]byte(`{"n":2}`)))

	var got []string
	for frame, err := range conn.Frames() {
		require.NoError(t, err)
		got = append(got, string(frame))
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, got)

	// A fresh sequence continues on the same socket.
	require.NoError(t, conn.Send([]byte(`{"n":3}`)))
	for frame, err := range conn.Frames() {
		require.NoError(t, err)
		assert.Equal(t, `{"n":3}`, string(frame))
		break
	}

	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Send([]byte("x")), ErrConnectionClosed)
}

func TestWebSocketFramesEndOnPeerClose(t *testing.T) {
	srv := echoServer(t)
	d := &WebSocketDialer{}

	conn, err := d.Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Send([]byte("bye")))

	var terminal error
	count := 0
	for frame, err := range conn.Frames() {
		count++
		assert.Nil(t, frame)
		terminal = err
	}
	assert.Equal(t, 1, count, "terminal error is yielded exactly once")
	assert.ErrorIs(t, terminal, ErrConnectionClosed)
}

func TestWebSocketFramesEndOnLocalClose(t *testing.T) {
	srv := echoServer(t)
	conn, err := (&WebSocketDialer{}).Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		for _, err := range conn.Frames() {
			done <- err
			return
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, conn.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrConnectionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("frames did not end after Close")
	}
}

func TestWebSocketDialErrors(t *testing.T) {
	d := &WebSocketDialer{HandshakeTimeout: time.Second}

	_, err := d.Dial(context.Background(), "ftp://nas")
	var dialErr *DialError
	require.ErrorAs(t, err, &dialErr)
	assert.Equal(t, "ftp://nas", dialErr.Address)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	// Plain HTTP endpoint rejects the upgrade.
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err = d.Dial(context.Background(), wsURL(srv))
	require.ErrorAs(t, err, &dialErr)
	assert.Equal(t, http.StatusNotFound, dialErr.StatusCode)
	assert.True(t, errors.Is(err, websocket.ErrBadHandshake))
}

func TestWebSocketPingPong(t *testing.T) {
	srv := echoServer(t)
	conn, err := (&WebSocketDialer{}).Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer conn.Close()

	p, ok := conn.(Pinger)
	require.True(t, ok)

	pongs := make(chan uint32, 1)
	p.OnPong(func(seq uint32) { pongs <- seq })

	// Pongs are processed while frames are being read.
	go func() {
		for _, err := range conn.Frames() {
			if err != nil {
				return
			}
		}
	}()

	require.NoError(t, p.Ping(42))
	select {
	case seq := <-pongs:
		assert.Equal(t, uint32(42), seq)
	case <-time.After(2 * time.Second):
		t.Fatal("no pong received")
	}
}

func TestClientTLSConfig(t *testing.T) {
	cfg, err := ClientTLSConfig(TLSOptions{ServerName: "nas.local", InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.Equal(t, "nas.local", cfg.ServerName)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.RootCAs)

	_, err = ClientTLSConfig(TLSOptions{CAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0o600))
	_, err = ClientTLSConfig(TLSOptions{CAFile: bad})
	assert.Error(t, err)
}

func TestClientTLSConfigCAFile(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, pemEncode(srv.Certificate().Raw), 0o600))

	cfg, err := ClientTLSConfig(TLSOptions{CAFile: path})
	require.NoError(t, err)
	assert.NotNil(t, cfg.RootCAs)
}

func pemEncode(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
