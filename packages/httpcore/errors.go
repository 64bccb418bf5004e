package httpcore

import "errors"

// Errors surfaced across package boundaries. Callers branch on the kind
// with errors.Is; none of them carry a payload.
var (
	// ErrTooManyRedirects is returned when a redirect chain exceeds the
	// configured hop ceiling.
	ErrTooManyRedirects = errors.New("httpx: too many redirects")

	// ErrRedirectLoop is returned when a redirect chain revisits a URL it
	// has already been through.
	ErrRedirectLoop = errors.New("httpx: redirect loop detected")

	// ErrRedirectBodyUnavailable is returned when a redirect would have to
	// resend a one-shot streamed body.
	ErrRedirectBodyUnavailable = errors.New("httpx: streamed request body cannot be replayed for redirect")

	// ErrStreamConsumed is returned when a one-shot body is read a second time.
	ErrStreamConsumed = errors.New("httpx: request body stream already consumed")

	// ErrProtocolViolation indicates a fatal connection-level protocol error,
	// such as a data frame for an unknown stream identifier.
	ErrProtocolViolation = errors.New("httpx: protocol violation")

	// ErrConnectionClosed indicates the peer dropped the connection.
	ErrConnectionClosed = errors.New("httpx: connection closed")
)
