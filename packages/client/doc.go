// Package client is the user-facing entry point: it assembles the
// middleware chain over a connection pool and exposes per-verb helpers.
//
// A Client is configured once with functional options and is safe for
// concurrent use. Every request flows caller -> auth -> redirects ->
// dispatcher; per-request options can override redirect following for
// a single call without touching the configured chain.
package client
