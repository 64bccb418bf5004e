// Package dispatch moves logical requests onto physical connections.
//
// A Pool keys connections by request origin and implements Dispatcher,
// the terminal of the middleware chain. Each Connection lazily dials
// through a backend, negotiates the protocol version via ALPN, and
// speaks either HTTP/1.1 or HTTP/2 over the resulting stream. Dropped
// connections are detected before reuse and replaced transparently, so
// callers never observe reconnects.
package dispatch
