package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

type event struct {
	removed bool
	entry   ServiceEntry
}

// scriptedSource replays events and then waits for ctx.
func scriptedSource(events ...event) source {
	return func(ctx context.Context, added, removed chan<- ServiceEntry) error {
		for _, ev := range events {
			dst := added
			if ev.removed {
				dst = removed
			}
			select {
			case dst <- ev.entry:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		<-ctx.Done()
		return ctx.Err()
	}
}

func testBrowser(events ...event) *Browser {
	b := NewBrowser(BrowserConfig{Timeout: 200 * time.Millisecond})
	b.source = scriptedSource(events...)
	return b
}

func TestBrowseAggregatesAddresses(t *testing.T) {
	b := testBrowser(
		event{entry: ServiceEntry{Instance: "nas", Host: "nas.local.", Port: 443, Addrs: []string{"192.168.1.10"}, Text: []string{"model=X10"}}},
		event{entry: ServiceEntry{Instance: "nas", Host: "nas.local.", Port: 443, Addrs: []string{"192.168.1.10"}}},
		event{entry: ServiceEntry{Instance: "nas", Host: "nas.local.", Port: 443, Addrs: []string{"fe80::1"}}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Browse(ctx)
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "nas", first.Instance)
	assert.Equal(t, []string{"192.168.1.10"}, first.Addresses)
	assert.Equal(t, "X10", first.TXT["model"])

	// The duplicate address is not re-emitted; the new one is.
	second := <-ch
	assert.Equal(t, []string{"192.168.1.10", "fe80::1"}, second.Addresses)
	assert.Equal(t, []string{"192.168.1.10"}, first.Addresses, "emitted values are copies")

	cancel()
	for range ch {
	}
}

func TestCollect(t *testing.T) {
	b := testBrowser(
		event{entry: ServiceEntry{Instance: "zeta", Host: "zeta.local.", Port: 80, Addrs: []string{"10.0.0.2"}}},
		event{entry: ServiceEntry{Instance: "alpha", Host: "alpha.local.", Port: 443, Addrs: []string{"10.0.0.1"}}},
		event{entry: ServiceEntry{Instance: "gone", Addrs: []string{"10.0.0.3"}}},
		event{removed: true, entry: ServiceEntry{Instance: "gone", Addrs: []string{"10.0.0.3"}}},
		event{entry: ServiceEntry{Instance: "alpha", Addrs: []string{"10.0.1.1"}}},
	)

	servers, err := b.Collect(context.Background())
	require.NoError(t, err)

	// "gone" was emitted before it disappeared, so Collect still saw it.
	names := make([]string, len(servers))
	for i, s := range servers {
		names[i] = s.Instance
	}
	assert.Equal(t, []string{"alpha", "gone", "zeta"}, names)
	assert.Equal(t, []string{"10.0.0.1", "10.0.1.1"}, servers[0].Addresses)
}

func TestServerAddress(t *testing.T) {
	tests := []struct {
		name    string
		server  Server
		variant wire.Variant
		want    string
	}{
		{"https host", Server{Host: "nas.local.", Port: 443}, wire.VariantPlain, "wss://nas.local:443/api/current"},
		{"http host", Server{Host: "nas.local.", Port: 80}, wire.VariantHandshake, "ws://nas.local:80/websocket"},
		{"no host", Server{Port: 8443, Addresses: []string{"10.0.0.5"}}, wire.VariantPlain, "wss://10.0.0.5:8443/api/current"},
		{"ipv6", Server{Port: 443, Addresses: []string{"fe80::1"}}, wire.VariantPlain, "wss://[fe80::1]:443/api/current"},
		{"no port", Server{Host: "nas"}, wire.VariantPlain, "wss://nas:443/api/current"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.server.Address(tt.variant))
		})
	}
}

func TestParseTXT(t *testing.T) {
	txt := ParseTXT([]string{"Model=X10", "path=/ui", "flag", "=empty", "model=dup", "eq=a=b"})
	assert.Equal(t, map[string]string{
		"model": "X10",
		"path":  "/ui",
		"flag":  "",
		"eq":    "a=b",
	}, txt)
}

func TestAddressHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, mergeAddresses([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, []string{"a", "c"}, removeAddresses([]string{"a", "b", "c"}, []string{"b", "x"}))
}

func TestNewBrowserDefaults(t *testing.T) {
	b := NewBrowser(BrowserConfig{})
	assert.Equal(t, DefaultServiceType, b.config.ServiceType)
	assert.Equal(t, DefaultBrowseTimeout, b.config.Timeout)
	assert.Nil(t, b.browserOptions())
}

func TestCollectReportsSourceFailure(t *testing.T) {
	noIface := errors.New("no multicast interface")
	b := NewBrowser(BrowserConfig{Timeout: time.Second})
	b.source = func(ctx context.Context, added, removed chan<- ServiceEntry) error {
		return noIface
	}

	servers, err := b.Collect(context.Background())
	require.ErrorIs(t, err, noIface)
	assert.Empty(t, servers)
}

func TestCollectKeepsServersFoundBeforeFailure(t *testing.T) {
	lost := errors.New("interface went down")
	b := NewBrowser(BrowserConfig{Timeout: time.Second})
	b.source = func(ctx context.Context, added, removed chan<- ServiceEntry) error {
		select {
		case added <- ServiceEntry{Instance: "nas", Host: "nas.local.", Port: 443, Addrs: []string{"10.0.0.1"}}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return lost
	}

	servers, err := b.Collect(context.Background())
	require.ErrorIs(t, err, lost)
	require.Len(t, servers, 1)
	assert.Equal(t, "nas", servers[0].Instance)
}
