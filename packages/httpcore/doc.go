// Package httpcore defines the request/response data model shared by the
// middleware chain, the dispatchers and the protocol multiplexers.
//
// The types here are deliberately independent of net/http: headers keep
// their insertion order and duplicate fields, request bodies distinguish
// replayable content from one-shot streams, and responses carry their
// redirect history plus an optional continuation for stepping through a
// redirect chain one hop at a time.
package httpcore
