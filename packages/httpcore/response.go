package httpcore

import "context"

// Response is a logical HTTP response.
//
// History holds the intermediate responses of a redirect chain, oldest
// first; its length equals the number of hops taken to reach this
// response. Next, when non-nil, resumes a redirect chain that was not
// followed eagerly: each call performs exactly one further hop and
// returns the next response. A response with a non-nil Next has taken no
// further hop yet.
type Response struct {
	StatusCode int
	Headers    Headers
	Body       []byte

	// Request is the request that produced this response. The response
	// does not own it.
	Request *Request

	History []*Response

	Next func(ctx context.Context) (*Response, error)
}

// URL returns the URL of the request that produced the response.
func (r *Response) URL() *URL {
	if r.Request == nil {
		return nil
	}
	return r.Request.URL
}

// IsRedirect reports whether the response redirects elsewhere: a
// redirect status code carrying a Location header.
func (r *Response) IsRedirect() bool {
	return IsRedirectCode(r.StatusCode) && r.Headers.Has("Location")
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
