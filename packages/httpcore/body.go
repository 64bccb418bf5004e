package httpcore

import "io"

// Body is a request body: either fully materialized bytes, which can be
// replayed any number of times, or a one-shot stream that can be read
// exactly once.
type Body struct {
	content  []byte
	stream   io.Reader
	consumed bool
}

// NewBody returns a replayable body over b. A nil or empty slice yields
// an empty body.
func NewBody(b []byte) *Body {
	return &Body{content: b}
}

// NewStreamBody returns a one-shot body reading from r.
func NewStreamBody(r io.Reader) *Body {
	return &Body{stream: r}
}

// IsStreaming reports whether the body is a one-shot stream.
func (b *Body) IsStreaming() bool {
	return b != nil && b.stream != nil
}

// Content returns the materialized bytes. For a streamed body it returns
// nil; use ReadAll to consume the stream.
func (b *Body) Content() []byte {
	if b == nil {
		return nil
	}
	return b.content
}

// ReadAll returns the full body bytes. A one-shot stream is drained on
// the first call; subsequent calls return ErrStreamConsumed rather than
// silently yielding nothing.
func (b *Body) ReadAll() ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	if b.stream == nil {
		return b.content, nil
	}
	if b.consumed {
		return nil, ErrStreamConsumed
	}
	b.consumed = true
	return io.ReadAll(b.stream)
}
