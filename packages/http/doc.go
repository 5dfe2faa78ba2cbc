// Package http is the request client at the heart of connect.
//
// A Client issues GET, POST, PUT, PATCH, DELETE, HEAD and OPTIONS calls:
//   - URLs are resolved from an origin, the client's domain and the call path
//   - Settings merge from process defaults, the client layer and per-call overrides
//   - Request bodies are encoded from the declared Content-Type (JSON, multipart, form)
//   - Responses are pretreated into a decoded *Result or a classified error
//
// The network is reached through the Transport interface. NetTransport is the
// net/http implementation; tests usually plug in a TransportFunc.
package http
