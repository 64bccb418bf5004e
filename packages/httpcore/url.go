package httpcore

import (
	"fmt"
	neturl "net/url"
)

// URL wraps net/url parsing with the origin and join semantics the
// redirect engine needs. Parsing and normalization are delegated to
// net/url; this type only layers comparison helpers on top.
type URL struct {
	u neturl.URL
}

// ParseURL parses an absolute URL.
func ParseURL(raw string) (*URL, error) {
	u, err := ParseRef(raw)
	if err != nil {
		return nil, err
	}
	if u.IsRelative() {
		return nil, fmt.Errorf("httpx: URL %q is not absolute", raw)
	}
	if s := u.u.Scheme; s != "http" && s != "https" {
		return nil, fmt.Errorf("httpx: unsupported URL scheme %q", s)
	}
	return u, nil
}

// ParseRef parses a URL reference, which may be relative
// (e.g. "/path" or "//host/path").
func ParseRef(raw string) (*URL, error) {
	u, err := neturl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid URL %q: %w", raw, err)
	}
	return &URL{u: *u}, nil
}

// MustParseURL is ParseURL for statically known inputs; it panics on error.
func MustParseURL(raw string) *URL {
	u, err := ParseURL(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// IsRelative reports whether the URL lacks a scheme or host.
func (u *URL) IsRelative() bool {
	return u.u.Scheme == "" || u.u.Host == ""
}

// Scheme returns the URL scheme.
func (u *URL) Scheme() string { return u.u.Scheme }

// Host returns the host, including any explicit port.
func (u *URL) Host() string { return u.u.Host }

// Hostname returns the host without the port.
func (u *URL) Hostname() string { return u.u.Hostname() }

// Port returns the effective port, applying scheme defaults.
func (u *URL) Port() int {
	if p := u.u.Port(); p != "" {
		var n int
		fmt.Sscanf(p, "%d", &n)
		return n
	}
	if u.u.Scheme == "https" {
		return 443
	}
	return 80
}

// Path returns the URL path, defaulting to "/".
func (u *URL) Path() string {
	if u.u.Path == "" {
		return "/"
	}
	return u.u.Path
}

// Query returns the raw query string.
func (u *URL) Query() string { return u.u.RawQuery }

// Fragment returns the URL fragment.
func (u *URL) Fragment() string { return u.u.Fragment }

// RequestTarget returns the path plus query, as written on the wire.
func (u *URL) RequestTarget() string {
	t := u.Path()
	if u.u.RawQuery != "" {
		t += "?" + u.u.RawQuery
	}
	return t
}

// Origin returns the (scheme, host, port) triple identifying the URL's
// security boundary, with default ports normalized.
func (u *URL) Origin() string {
	return fmt.Sprintf("%s://%s:%d", u.u.Scheme, u.u.Hostname(), u.Port())
}

// SameOrigin reports whether two URLs share scheme, host and port.
func (u *URL) SameOrigin(other *URL) bool {
	return u.Origin() == other.Origin()
}

// Join resolves ref against u per RFC 3986, covering relative paths and
// scheme-relative ("//host/path") references.
func (u *URL) Join(ref *URL) *URL {
	resolved := u.u.ResolveReference(&ref.u)
	return &URL{u: *resolved}
}

// WithFragment returns a copy of u with the fragment replaced.
func (u *URL) WithFragment(fragment string) *URL {
	out := u.u
	out.Fragment = fragment
	return &URL{u: out}
}

// Equal reports whether two URLs serialize identically.
func (u *URL) Equal(other *URL) bool {
	return other != nil && u.String() == other.String()
}

func (u *URL) String() string {
	return u.u.String()
}
