package httpcore

import (
	"sort"
	"strings"
)

// Cookies is a name/value cookie set merged into the Cookie header at
// send time.
type Cookies map[string]string

// Clone returns a copy of the set. A nil receiver yields an empty set.
func (c Cookies) Clone() Cookies {
	out := make(Cookies, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge copies every cookie from other into c, overwriting on conflict.
func (c Cookies) Merge(other Cookies) {
	for k, v := range other {
		c[k] = v
	}
}

// HeaderValue renders the set as a Cookie header value with names in
// lexical order, or "" for an empty set.
func (c Cookies) HeaderValue() string {
	if len(c) == 0 {
		return ""
	}
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, k := range names {
		pairs = append(pairs, k+"="+c[k])
	}
	return strings.Join(pairs, "; ")
}
