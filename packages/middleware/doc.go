// Package middleware composes cross-cutting request/response behavior
// around a raw send operation.
//
// A Middleware wraps a Responder: it may transform the request, call the
// next responder exactly once, transform the result, or short-circuit
// with a synthesized response. Chain nests middlewares so the first one
// listed sees the caller's request first, terminating in the dispatcher.
//
// The redirect resolution engine lives here as a middleware because it
// re-enters the chain below itself for every hop.
package middleware
