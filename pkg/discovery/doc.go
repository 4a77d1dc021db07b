// Package discovery finds storage appliances on the local network with
// mDNS/DNS-SD.
//
// Appliances advertise their web interface as an HTTP service (by default
// _http._tcp). The same host serves the RPC endpoints, so a discovered
// service can be turned into an engine address with Server.Address:
//
//	b := discovery.NewBrowser(discovery.DefaultBrowserConfig())
//	servers, err := b.Collect(ctx)
//	...
//	addr := servers[0].Address(wire.VariantPlain) // wss://nas.local:443/api/current
//
// Services seen on several interfaces are aggregated by instance name;
// their addresses are merged into one Server.
package discovery
