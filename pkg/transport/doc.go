// Package transport carries opaque message frames over a WebSocket.
//
// The transport knows nothing about the JSON carried inside frames. It
// provides:
//   - Dialer/Conn: connect, send one frame, iterate received frames, close
//   - address normalization (bare hosts become wss:// URLs)
//   - TLS client configuration for appliances with self-signed certificates
//   - keep-alive using WebSocket ping/pong control frames
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      JSON envelopes            │
//	├────────────────────────────────┤
//	│   WebSocket text messages      │
//	├────────────────────────────────┤
//	│     TLS (wss) or plain (ws)    │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Keep-Alive
//
// Liveness is checked with ping control frames carrying a 4-byte sequence
// number. Defaults:
//   - Ping interval: 30 seconds
//   - Pong timeout: 5 seconds
//   - Max missed pongs: 3
//   - Maximum detection delay: 95 seconds
package transport
