package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasrpc/nasrpc-go/pkg/rpc"
	"github.com/nasrpc/nasrpc-go/pkg/transport"
	"github.com/nasrpc/nasrpc-go/pkg/truenas"
	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

const sample = `
address: nas.local
protocol: legacy
username: root
password: secret
tls:
  insecure: true
  server_name: truenas.lan
timeouts:
  dial: 5s
  handshake: 3s
  call: 1m
keepalive:
  enabled: false
protocol_log: /tmp/session.nlog
log_level: debug
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "nas.local", cfg.Address)
	assert.True(t, cfg.TLS.Insecure)
	assert.Equal(t, "truenas.lan", cfg.TLS.ServerName)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Dial)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.Handshake)
	assert.Equal(t, time.Minute, cfg.Timeouts.Call)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Write, "unset keys keep defaults")
	assert.False(t, cfg.KeepAlive.Enabled)
	assert.Equal(t, "/tmp/session.nlog", cfg.ProtocolLog)

	v, err := cfg.Variant()
	require.NoError(t, err)
	assert.Equal(t, wire.VariantHandshake, v)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	assert.Equal(t, truenas.Credentials{Username: "root", Password: "secret"}, cfg.Credentials())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nas.local", cfg.Address)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "failed to read file", le.Message)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("address: [unclosed"), 0o600))
	_, err = Load(bad)
	require.ErrorAs(t, err, &le)
	assert.Equal(t, bad, le.File)
	assert.Equal(t, "failed to parse YAML", le.Message)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAddress)

	cfg.Address = "nas"
	require.NoError(t, cfg.Validate())

	v, err := cfg.Variant()
	require.NoError(t, err)
	assert.Equal(t, wire.VariantPlain, v)
	assert.True(t, cfg.KeepAlive.Enabled)
	assert.Equal(t, rpc.DefaultHandshakeTimeout, cfg.Timeouts.Handshake)
	assert.True(t, cfg.Credentials().IsZero())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"bad protocol", func(c *Config) { c.Protocol = "grpc" }, ErrInvalidProtocol},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, ErrInvalidLogLevel},
		{"negative call timeout", func(c *Config) { c.Timeouts.Call = -time.Second }, ErrNegativeDuration},
		{"negative ping interval", func(c *Config) { c.KeepAlive.Interval = -1 }, ErrNegativeDuration},
		{"password only", func(c *Config) { c.Password = "x" }, ErrPasswordOnly},
		{"api key with password", func(c *Config) { c.Password = "x"; c.APIKey = "k" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Address = "nas"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNeedsPassword(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.NeedsPassword())
	cfg.Username = "root"
	assert.True(t, cfg.NeedsPassword())
	cfg.APIKey = "k"
	assert.False(t, cfg.NeedsPassword())
}

func TestEngineConfig(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	ec, err := cfg.EngineConfig(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "nas.local", ec.Address)
	assert.Equal(t, wire.VariantHandshake, ec.Variant)
	assert.Equal(t, 3*time.Second, ec.HandshakeTimeout)
	assert.Equal(t, time.Minute, ec.CallTimeout)
	assert.Nil(t, ec.KeepAlive)

	d, ok := ec.Dialer.(*transport.WebSocketDialer)
	require.True(t, ok)
	assert.Equal(t, "/websocket", d.DefaultPath)
	assert.Equal(t, 5*time.Second, d.HandshakeTimeout)
	require.NotNil(t, d.TLSConfig)
	assert.True(t, d.TLSConfig.InsecureSkipVerify)
	assert.Equal(t, "truenas.lan", d.TLSConfig.ServerName)

	cfg.KeepAlive.Enabled = true
	cfg.KeepAlive.Interval = time.Second
	ec, err = cfg.EngineConfig(nil, nil)
	require.NoError(t, err)
	require.NotNil(t, ec.KeepAlive)
	assert.Equal(t, time.Second, ec.KeepAlive.PingInterval)

	cfg.TLS.CAFile = filepath.Join(t.TempDir(), "missing.pem")
	_, err = cfg.EngineConfig(nil, nil)
	assert.Error(t, err)
}
