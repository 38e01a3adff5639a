package http

import "strings"

// Headers is an ordered-insertion header mapping with case-insensitive keys.
// A duplicate write keeps the key's original position and replaces its value
// (last write wins).
type Headers struct {
	order []string          // lowercase keys, insertion order
	name  map[string]string // lowercase -> display name
	value map[string]string // lowercase -> value
}

// NewHeaders returns an empty header mapping.
func NewHeaders() Headers {
	return Headers{
		name:  make(map[string]string),
		value: make(map[string]string),
	}
}

// HeadersFromMap builds a Headers from a plain map. Iteration order of the
// input map is not preserved; keys are inserted in sorted-agnostic map order,
// which is fine for single-writer maps where no duplicate keys exist.
func HeadersFromMap(m map[string]string) Headers {
	h := NewHeaders()
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

// Set inserts or replaces the value for key. The display name follows the
// most recent write; the position follows the first.
func (h *Headers) Set(key, value string) {
	if h.name == nil {
		*h = NewHeaders()
	}
	lk := strings.ToLower(key)
	if _, ok := h.value[lk]; !ok {
		h.order = append(h.order, lk)
	}
	h.name[lk] = key
	h.value[lk] = value
}

// Get returns the value for key, comparing case-insensitively.
func (h Headers) Get(key string) (string, bool) {
	v, ok := h.value[strings.ToLower(key)]
	return v, ok
}

// Len returns the number of distinct keys.
func (h Headers) Len() int {
	return len(h.order)
}

// Each calls fn for every header in insertion order.
func (h Headers) Each(fn func(key, value string)) {
	for _, lk := range h.order {
		fn(h.name[lk], h.value[lk])
	}
}

// Clone returns an independent copy.
func (h Headers) Clone() Headers {
	out := Headers{
		order: make([]string, len(h.order)),
		name:  make(map[string]string, len(h.name)),
		value: make(map[string]string, len(h.value)),
	}
	copy(out.order, h.order)
	for k, v := range h.name {
		out.name[k] = v
	}
	for k, v := range h.value {
		out.value[k] = v
	}
	return out
}

// Merge overlays other onto a copy of h, last write wins, and returns it.
func (h Headers) Merge(other Headers) Headers {
	out := h.Clone()
	other.Each(func(k, v string) {
		out.Set(k, v)
	})
	return out
}

// Map flattens the headers into a plain map using display names.
func (h Headers) Map() map[string]string {
	out := make(map[string]string, len(h.order))
	for _, lk := range h.order {
		out[h.name[lk]] = h.value[lk]
	}
	return out
}
