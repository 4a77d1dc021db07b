// Package wire defines the JSON envelope formats spoken to the NAS
// management service and the codec that moves between them and Go values.
//
// Two dialects share one socket model:
//
//   - Plain (VariantPlain): JSON-RPC 2.0 style requests, usable as soon as
//     the socket opens.
//   - Handshake (VariantHandshake): the legacy middleware dialect, which
//     requires a connect/connected exchange before any method call.
//
// # Requests
//
//	plain:     {"id":"1","method":"system.info","params":[],"jsonrpc":"2.0"}
//	handshake: {"id":"<uuid>","msg":"method","method":"system.info","params":[]}
//	connect:   {"msg":"connect","version":"1","support":["1"]}
//
// # Replies
//
// Decode never fails. Every inbound frame becomes exactly one Reply:
//
//   - Result: a successful reply for a correlation id.
//   - Error: an explicit error reply for a correlation id.
//   - Handshake: connected/failed acknowledgement of the connect message.
//   - Unrecognized: anything else, including malformed JSON.
//
// # Dynamic values
//
// Results and error details are method specific, so they are carried as
// Value, a tagged union over null, bool, number, string, array and object.
// Value.Decode maps a value onto a typed struct when the caller knows the
// shape.
package wire
