package domain

import (
	"net/http"
	"sync"
)

// Response is the mutable output of one pipeline run. It starts unset and is
// built up by stages through explicit setters. Once Finalize is called the
// descriptor is sealed: every later mutation fails with ErrAlreadyResponded.
//
// The mutex exists because the host layer may observe the descriptor after a
// cancelled run; within a single run stages access it sequentially.
type Response struct {
	mu        sync.Mutex
	status    int
	header    Header
	body      []byte
	finalized bool
}

// NewResponse returns an empty, unsent response descriptor.
func NewResponse() *Response {
	return &Response{header: make(Header)}
}

// SetStatus records the status code.
func (r *Response) SetStatus(code int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return ErrAlreadyResponded
	}
	r.status = code
	return nil
}

// SetHeader records a response header.
func (r *Response) SetHeader(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return ErrAlreadyResponded
	}
	r.header.Set(name, value)
	return nil
}

// Write appends to the response body.
func (r *Response) Write(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return ErrAlreadyResponded
	}
	r.body = append(r.body, p...)
	return nil
}

// Finalize seals the descriptor. A status of 0 defaults to 200 OK.
// Finalizing twice fails with ErrAlreadyResponded.
func (r *Response) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return ErrAlreadyResponded
	}
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.finalized = true
	return nil
}

// Finalized reports whether the response has been sealed.
func (r *Response) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized
}

// Status returns the recorded status code (0 until set).
func (r *Response) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// HeaderValue returns the named response header.
func (r *Response) HeaderValue(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Get(name)
}

// Headers returns a copy of the response headers.
func (r *Response) Headers() Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}

// Body returns the accumulated body bytes.
func (r *Response) Body() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.body))
	copy(out, r.body)
	return out
}
