package truenas

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasrpc/nasrpc-go/internal/mockserver"
	"github.com/nasrpc/nasrpc-go/pkg/log"
	"github.com/nasrpc/nasrpc-go/pkg/rpc"
	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

func startServer(t *testing.T, variant wire.Variant) *mockserver.Server {
	t.Helper()
	srv := mockserver.New(variant)
	t.Cleanup(srv.Close)
	srv.HandleLogin("root", "secret", "1-abcdef")
	return srv
}

func dial(t *testing.T, srv *mockserver.Server, variant wire.Variant, creds Credentials) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, rpc.Config{Address: srv.URL(), Variant: variant, CallTimeout: 5 * time.Second}, creds)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDialWithAPIKeyLegacy(t *testing.T) {
	srv := startServer(t, wire.VariantHandshake)
	srv.HandleResult(MethodSystemInfo, map[string]any{
		"version":        "TrueNAS-13.0-U6",
		"hostname":       "nas",
		"cores":          8,
		"physmem":        int64(34359738368),
		"uptime_seconds": 1234.5,
		"loadavg":        []float64{0.1, 0.2, 0.3},
	})

	c := dial(t, srv, wire.VariantHandshake, Credentials{APIKey: "1-abcdef"})

	info, err := c.SystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TrueNAS-13.0-U6", info.Version)
	assert.Equal(t, "nas", info.Hostname)
	assert.Equal(t, 8, info.Cores)
	assert.Equal(t, int64(34359738368), info.PhysMem)
	assert.InDelta(t, 1234.5, info.UptimeSeconds, 0.001)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, info.LoadAvg)

	assert.Equal(t, []string{MethodLoginWithAPIKey, MethodSystemInfo}, srv.Methods())
}

func TestDialWithPasswordPlain(t *testing.T) {
	srv := startServer(t, wire.VariantPlain)

	c := dial(t, srv, wire.VariantPlain, Credentials{Username: "root", Password: "secret"})
	assert.Equal(t, rpc.StateReady, c.Engine().State())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, MethodLogin, reqs[0].Method)
	assert.Equal(t, "1", reqs[0].ID)
	require.Len(t, reqs[0].Params, 2)
	assert.JSONEq(t, `"root"`, string(reqs[0].Params[0]))
}

func TestDialAuthFailed(t *testing.T) {
	srv := startServer(t, wire.VariantPlain)

	_, err := Dial(context.Background(),
		rpc.Config{Address: srv.URL(), Variant: wire.VariantPlain},
		Credentials{Username: "root", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestLoginRemoteError(t *testing.T) {
	srv := startServer(t, wire.VariantPlain)
	srv.HandleError(MethodLogin, mockserver.CodeNotAuthorized, "not authorized")

	c := dial(t, srv, wire.VariantPlain, Credentials{})

	err := c.Login(context.Background(), Credentials{Username: "root", Password: "secret"})
	var rerr *rpc.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "not authorized", rerr.Message)
	assert.Contains(t, err.Error(), MethodLogin)

	// The connection survives a failed call.
	assert.Equal(t, rpc.StateReady, c.Engine().State())
}

func TestLoginWithoutCredentials(t *testing.T) {
	srv := startServer(t, wire.VariantPlain)
	c := dial(t, srv, wire.VariantPlain, Credentials{})

	assert.ErrorIs(t, c.Login(context.Background(), Credentials{}), ErrNoCredentials)
	assert.Empty(t, srv.Requests())
}

func TestCredentialsLoginCall(t *testing.T) {
	tests := []struct {
		name   string
		creds  Credentials
		method string
		args   []any
	}{
		{"password", Credentials{Username: "u", Password: "p"}, MethodLogin, []any{"u", "p"}},
		{"api key", Credentials{APIKey: "k"}, MethodLoginWithAPIKey, []any{"k"}},
		{"api key wins", Credentials{Username: "u", Password: "p", APIKey: "k"}, MethodLoginWithAPIKey, []any{"k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, args := tt.creds.loginCall()
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.args, args)
		})
	}
	assert.True(t, Credentials{}.IsZero())
	assert.False(t, Credentials{Username: "u"}.IsZero())
}

func TestQueries(t *testing.T) {
	srv := startServer(t, wire.VariantPlain)
	srv.HandleResult(MethodPoolQuery, []map[string]any{
		{"id": 1, "name": "tank", "status": "ONLINE", "healthy": true, "size": 1000, "free": 400},
		{"id": 2, "name": "backup", "status": "DEGRADED", "healthy": false},
	})
	srv.HandleResult(MethodDatasetQuery, []map[string]any{
		{
			"id": "tank/media", "name": "tank/media", "pool": "tank", "type": "FILESYSTEM",
			"mountpoint": "/mnt/tank/media",
			"used":       map[string]any{"value": "1.5G", "rawvalue": "1610612736", "parsed": 1610612736},
		},
	})
	srv.HandleResult(MethodUserQuery, []map[string]any{
		{"id": 1, "uid": 0, "username": "root", "full_name": "root", "builtin": true},
		{"id": 35, "uid": 1000, "username": "ada", "full_name": "Ada Lovelace", "email": "ada@example.com"},
	})
	srv.HandleResult(MethodSMBShareQuery, []map[string]any{
		{"id": 1, "name": "media", "path": "/mnt/tank/media", "enabled": true, "ro": true},
	})

	c := dial(t, srv, wire.VariantPlain, Credentials{})
	ctx := context.Background()

	pools, err := c.Pools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, Pool{ID: 1, Name: "tank", Status: "ONLINE", Healthy: true, Size: 1000, Free: 400}, pools[0])

	names, err := c.PoolNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank", "backup"}, names)

	ds, err := c.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "/mnt/tank/media", ds[0].Mountpoint)
	assert.Equal(t, "1.5G", ds[0].Used.Value)
	assert.Equal(t, "1610612736", ds[0].Used.RawValue)

	users, err := c.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ada Lovelace", users[1].FullName)
	assert.True(t, users[0].Builtin)

	shares, err := c.SMBShares(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.True(t, shares[0].ReadOnly)

	raw, err := c.Call(ctx, MethodPoolQuery)
	require.NoError(t, err)
	assert.Equal(t, 2, raw.Len())
}

func TestQueryDecodeError(t *testing.T) {
	srv := startServer(t, wire.VariantPlain)
	srv.HandleResult(MethodPoolQuery, "not a list")

	c := dial(t, srv, wire.VariantPlain, Credentials{})
	_, err := c.Pools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), MethodPoolQuery)
	assert.False(t, rpc.IsRemote(err))
}

func TestSummaryIssuesCallsConcurrently(t *testing.T) {
	srv := startServer(t, wire.VariantHandshake)

	// system.info answers only after pool.query has arrived, so Summary
	// would deadlock if the calls were sequential.
	poolSeen := make(chan struct{})
	srv.Handle(MethodPoolQuery, func([]json.RawMessage) (any, *mockserver.Error) {
		close(poolSeen)
		return []map[string]any{{"name": "tank"}}, nil
	})
	srv.Handle(MethodSystemInfo, func([]json.RawMessage) (any, *mockserver.Error) {
		select {
		case <-poolSeen:
		case <-time.After(3 * time.Second):
			return nil, &mockserver.Error{Code: 1, Message: "pool.query never arrived"}
		}
		return map[string]any{"version": "X"}, nil
	})

	c := dial(t, srv, wire.VariantHandshake, Credentials{})
	s, err := c.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "X", s.Info.Version)
	require.Len(t, s.Pools, 1)
	assert.Equal(t, "tank", s.Pools[0].Name)
}

func TestSummaryFailure(t *testing.T) {
	srv := startServer(t, wire.VariantPlain)
	srv.HandleResult(MethodPoolQuery, []any{})
	srv.HandleError(MethodSystemInfo, mockserver.CodeNotAuthorized, "not authorized")

	c := dial(t, srv, wire.VariantPlain, Credentials{})
	_, err := c.Summary(context.Background())
	assert.True(t, rpc.IsRemote(err))
}

func TestProtocolLogRedactsLogin(t *testing.T) {
	for _, variant := range []wire.Variant{wire.VariantPlain, wire.VariantHandshake} {
		t.Run(variant.String(), func(t *testing.T) {
			srv := startServer(t, variant)
			path := filepath.Join(t.TempDir(), "session.nlog")
			fl, err := log.NewFileLogger(path)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			c, err := Dial(ctx, rpc.Config{
				Address:        srv.URL(),
				Variant:        variant,
				ProtocolLogger: log.NewRedactingLogger(fl, LoginMethods...),
			}, Credentials{Username: "root", Password: "secret"})
			require.NoError(t, err)
			require.NoError(t, c.Close())
			require.NoError(t, fl.Close())

			reader, err := log.NewReader(path)
			require.NoError(t, err)
			defer reader.Close()

			var sawLogin bool
			for ev, err := range reader.All() {
				require.NoError(t, err)
				if ev.Frame != nil {
					assert.NotContains(t, string(ev.Frame.Data), "secret")
				}
				if ev.Message != nil {
					assert.False(t, strings.Contains(ev.Message.Payload, "secret"), "payload %q", ev.Message.Payload)
					if ev.Message.Type == log.MessageTypeCall && ev.Message.Method == MethodLogin {
						sawLogin = true
						assert.Equal(t, log.Redacted, ev.Message.Payload)
					}
				}
			}
			assert.True(t, sawLogin, "login call not logged")
		})
	}
}
