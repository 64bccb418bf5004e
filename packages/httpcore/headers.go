package httpcore

import "strings"

// Field is a single header key/value pair.
type Field struct {
	Key   string
	Value string
}

// Headers is an ordered list of header fields. Lookups are
// case-insensitive; duplicate keys are preserved in insertion order.
type Headers struct {
	fields []Field
}

// NewHeaders builds a Headers from key/value pairs, preserving order.
func NewHeaders(pairs ...Field) Headers {
	h := Headers{}
	h.fields = append(h.fields, pairs...)
	return h
}

// Get returns the first value for key, or "" if absent.
func (h *Headers) Get(key string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value
		}
	}
	return ""
}

// Values returns all values for key in insertion order.
func (h *Headers) Values(key string) []string {
	var out []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Key, key) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Has reports whether key is present.
func (h *Headers) Has(key string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.Key, key) {
			return true
		}
	}
	return false
}

// Set replaces every value for key with a single value. The field keeps
// the position of the first occurrence; a new key is appended.
func (h *Headers) Set(key, value string) {
	for i, f := range h.fields {
		if strings.EqualFold(f.Key, key) {
			h.fields[i].Value = value
			h.removeAfter(key, i)
			return
		}
	}
	h.fields = append(h.fields, Field{Key: key, Value: value})
}

// Add appends a value for key without touching existing occurrences.
func (h *Headers) Add(key, value string) {
	h.fields = append(h.fields, Field{Key: key, Value: value})
}

// Del removes every occurrence of key.
func (h *Headers) Del(key string) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.Key, key) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

func (h *Headers) removeAfter(key string, idx int) {
	kept := h.fields[:idx+1]
	for _, f := range h.fields[idx+1:] {
		if !strings.EqualFold(f.Key, key) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

// Fields returns the underlying fields in order. The slice is shared;
// callers must not mutate it.
func (h *Headers) Fields() []Field {
	return h.fields
}

// Len returns the number of fields, counting duplicates.
func (h *Headers) Len() int {
	return len(h.fields)
}

// Clone returns a deep copy.
func (h *Headers) Clone() Headers {
	out := Headers{fields: make([]Field, len(h.fields))}
	copy(out.fields, h.fields)
	return out
}
