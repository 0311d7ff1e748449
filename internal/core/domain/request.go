// Package domain defines the canonical types that flow through the engine:
// request and response descriptors, stage outcomes, and the error taxonomy.
package domain

import "net/textproto"

// Header is a case-insensitive name/value mapping. Keys are stored in
// canonical MIME form so lookups ignore the caller's casing.
type Header map[string]string

// Get returns the value for name, or "" if absent.
func (h Header) Get(name string) string {
	return h[textproto.CanonicalMIMEHeaderKey(name)]
}

// Set stores value under the canonical form of name.
func (h Header) Set(name, value string) {
	h[textproto.CanonicalMIMEHeaderKey(name)] = value
}

// Has reports whether name is present.
func (h Header) Has(name string) bool {
	_, ok := h[textproto.CanonicalMIMEHeaderKey(name)]
	return ok
}

// Clone returns an independent copy of the header map.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Request is the immutable input to one pipeline run. The dispatcher
// constructs it once per incoming request; stages read it but attach any
// derived data through the state store rather than by mutating the
// descriptor.
type Request struct {
	Method    string
	Path      string
	Header    Header
	Body      []byte
	SessionID string
}

// NewRequest builds a request descriptor with an empty header map.
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(Header),
	}
}

// WithHeader sets a header and returns the request for chaining during setup.
func (r *Request) WithHeader(name, value string) *Request {
	r.Header.Set(name, value)
	return r
}

// WithSession attaches a session id.
func (r *Request) WithSession(id string) *Request {
	r.SessionID = id
	return r
}

// WithBody attaches a body.
func (r *Request) WithBody(body []byte) *Request {
	r.Body = body
	return r
}
