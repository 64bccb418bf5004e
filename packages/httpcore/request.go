package httpcore

// Request is a logical HTTP request, independent of the protocol version
// it will be sent over.
type Request struct {
	Method  string
	URL     *URL
	Headers Headers
	Cookies Cookies
	Body    *Body
}

// NewRequest builds a request for an absolute URL.
func NewRequest(method, rawurl string) (*Request, error) {
	u, err := ParseURL(rawurl)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method:  method,
		URL:     u,
		Cookies: Cookies{},
	}, nil
}

// SetHeader sets a header and returns the request for chaining.
func (r *Request) SetHeader(key, value string) *Request {
	r.Headers.Set(key, value)
	return r
}

// SetBody attaches a replayable byte body.
func (r *Request) SetBody(b []byte) *Request {
	r.Body = NewBody(b)
	return r
}

// SetCookie adds a cookie to the request's cookie set.
func (r *Request) SetCookie(name, value string) *Request {
	if r.Cookies == nil {
		r.Cookies = Cookies{}
	}
	r.Cookies[name] = value
	return r
}
