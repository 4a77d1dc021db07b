package discovery

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// Service type defaults.
const (
	DefaultServiceType   = "_http._tcp"
	Domain               = "local."
	DefaultBrowseTimeout = 5 * time.Second
)

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// ServiceType is the DNS-SD service to browse (default: _http._tcp).
	ServiceType string

	// Interface restricts browsing to one network interface.
	// Empty string means all interfaces.
	Interface string

	// Timeout bounds Collect (default: 5s).
	Timeout time.Duration
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		ServiceType: DefaultServiceType,
		Timeout:     DefaultBrowseTimeout,
	}
}

// Server is one discovered appliance.
type Server struct {
	Instance  string
	Host      string
	Port      uint16
	Addresses []string
	TXT       map[string]string
}

// Address returns the WebSocket URL for variant. Port 80 uses ws://;
// everything else uses wss://.
func (s *Server) Address(variant wire.Variant) string {
	host := strings.TrimSuffix(s.Host, ".")
	if host == "" && len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}

	scheme := "wss"
	if s.Port == 80 {
		scheme = "ws"
	}
	port := s.Port
	if port == 0 {
		port = 443
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(int(port))) + variant.DefaultPath()
}

func (s *Server) clone() *Server {
	c := *s
	c.Addresses = slices.Clone(s.Addresses)
	c.TXT = maps.Clone(s.TXT)
	return &c
}

// ServiceEntry is a resolved DNS-SD record, independent of the mDNS
// library.
type ServiceEntry struct {
	Instance string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

func (e ServiceEntry) toServer() *Server {
	return &Server{
		Instance:  e.Instance,
		Host:      e.Host,
		Port:      e.Port,
		Addresses: slices.Clone(e.Addrs),
		TXT:       ParseTXT(e.Text),
	}
}

// source feeds resolved and removed entries until ctx is done.
type source func(ctx context.Context, added, removed chan<- ServiceEntry) error

// Browser browses for servers.
type Browser struct {
	config BrowserConfig
	source source
}

// NewBrowser creates a browser backed by zeroconf.
func NewBrowser(config BrowserConfig) *Browser {
	if config.ServiceType == "" {
		config.ServiceType = DefaultServiceType
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultBrowseTimeout
	}
	b := &Browser{config: config}
	b.source = b.zeroconfSource
	return b
}

// Browse streams servers until ctx is done. A server is sent when first
// seen and again whenever a new address for it appears. The channel is
// closed when browsing ends, including when mDNS fails; Collect reports
// that failure.
func (b *Browser) Browse(ctx context.Context) (<-chan *Server, error) {
	out, _ := b.browse(ctx)
	return out, nil
}

// browse is Browse plus a function returning the source's error. That
// function blocks until the source has stopped.
func (b *Browser) browse(ctx context.Context) (<-chan *Server, func() error) {
	out := make(chan *Server)
	added := make(chan ServiceEntry)
	removed := make(chan ServiceEntry)

	ctx, cancel := context.WithCancel(ctx)
	srcDone := make(chan struct{})
	var srcErr error
	go func() {
		defer close(srcDone)
		srcErr = b.source(ctx, added, removed)
	}()
	wait := func() error {
		<-srcDone
		return srcErr
	}

	go func() {
		defer close(out)
		defer func() {
			cancel()
			<-srcDone
		}()

		servers := make(map[string]*Server)
		for {
			select {
			case entry := <-added:
				svc := entry.toServer()
				existing, found := servers[svc.Instance]
				if found {
					before := len(existing.Addresses)
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					if len(existing.Addresses) == before {
						continue
					}
					svc = existing
				} else {
					servers[svc.Instance] = svc
				}
				select {
				case out <- svc.clone():
				case <-ctx.Done():
					return
				}

			case entry := <-removed:
				if existing, found := servers[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry.Addrs)
					if len(existing.Addresses) == 0 {
						delete(servers, entry.Instance)
					}
				}

			case <-srcDone:
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	return out, wait
}

// Collect browses for the configured timeout and returns the servers
// found, sorted by instance name. An mDNS failure is returned along with
// whatever was found before it.
func (b *Browser) Collect(ctx context.Context) ([]*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	ch, wait := b.browse(ctx)

	latest := make(map[string]*Server)
	for svc := range ch {
		latest[svc.Instance] = svc
	}
	srcErr := wait()

	out := slices.Collect(maps.Values(latest))
	slices.SortFunc(out, func(a, b *Server) int {
		return strings.Compare(a.Instance, b.Instance)
	})

	if srcErr != nil && !errors.Is(srcErr, context.Canceled) && !errors.Is(srcErr, context.DeadlineExceeded) {
		return out, fmt.Errorf("mdns browse: %w", srcErr)
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return out, err
	}
	return out, nil
}

func (b *Browser) zeroconfSource(ctx context.Context, added, removed chan<- ServiceEntry) error {
	entries := make(chan *zeroconf.ServiceEntry)
	gone := make(chan *zeroconf.ServiceEntry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- zeroconf.Browse(ctx, b.config.ServiceType, Domain, entries, gone, b.browserOptions()...)
	}()

	for {
		var (
			e   *zeroconf.ServiceEntry
			ok  bool
			dst chan<- ServiceEntry
		)
		select {
		case e, ok = <-entries:
			dst = added
		case e, ok = <-gone:
			dst = removed
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			// zeroconf closes its channels when browsing ends.
			return ctx.Err()
		}
		select {
		case dst <- fromZeroconf(e):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// browserOptions returns zeroconf client options based on config.
func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

func fromZeroconf(entry *zeroconf.ServiceEntry) ServiceEntry {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return ServiceEntry{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     uint16(entry.Port),
		Text:     entry.Text,
		Addrs:    addrs,
	}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range add {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops every address in gone.
func removeAddresses(addresses, gone []string) []string {
	toRemove := make(map[string]bool, len(gone))
	for _, a := range gone {
		toRemove[a] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

// ParseTXT parses "key=value" TXT strings. Keys without "=" map to "".
// Keys are lower-cased; the first occurrence wins.
func ParseTXT(records []string) map[string]string {
	txt := make(map[string]string, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := txt[k]; !dup {
			txt[k] = v
		}
	}
	return txt
}
