package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHeader_CaseInsensitive(t *testing.T) {
	h := make(Header)
	h.Set("content-type", "application/json")

	if got := h.Get("Content-Type"); got != "application/json" {
		t.Errorf("Get(Content-Type) = %q", got)
	}
	if got := h.Get("CONTENT-TYPE"); got != "application/json" {
		t.Errorf("Get(CONTENT-TYPE) = %q", got)
	}
	if !h.Has("content-TYPE") {
		t.Error("Has() should ignore case")
	}
	if h.Has("authorization") {
		t.Error("Has() reported an absent header")
	}
}

func TestResponse_FinalizeSeals(t *testing.T) {
	r := NewResponse()
	if err := r.SetStatus(http.StatusCreated); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if err := r.Write([]byte("body")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if r.Finalized() {
		t.Error("response finalized before Finalize()")
	}
	if err := r.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if err := r.SetStatus(http.StatusOK); !errors.Is(err, ErrAlreadyResponded) {
		t.Errorf("SetStatus after finalize = %v, want ErrAlreadyResponded", err)
	}
	if err := r.SetHeader("X", "y"); !errors.Is(err, ErrAlreadyResponded) {
		t.Errorf("SetHeader after finalize = %v, want ErrAlreadyResponded", err)
	}
	if err := r.Write([]byte("more")); !errors.Is(err, ErrAlreadyResponded) {
		t.Errorf("Write after finalize = %v, want ErrAlreadyResponded", err)
	}
	if err := r.Finalize(); !errors.Is(err, ErrAlreadyResponded) {
		t.Errorf("double Finalize = %v, want ErrAlreadyResponded", err)
	}

	if r.Status() != http.StatusCreated {
		t.Errorf("status = %d, want 201", r.Status())
	}
	if string(r.Body()) != "body" {
		t.Errorf("body = %q, want body", r.Body())
	}
}

func TestResponse_FinalizeDefaultsStatus(t *testing.T) {
	r := NewResponse()
	if err := r.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if r.Status() != http.StatusOK {
		t.Errorf("status = %d, want 200", r.Status())
	}
}

func TestOperationalError_StatusMapping(t *testing.T) {
	tests := []struct {
		err  *OperationalError
		want int
	}{
		{ErrInvalidRequest("bad"), http.StatusBadRequest},
		{ErrUnauthorized("denied"), http.StatusUnauthorized},
		{ErrPermission("no"), http.StatusForbidden},
		{ErrNotFound("missing"), http.StatusNotFound},
		{ErrConflict("taken"), http.StatusConflict},
		{NewOperationalError(ErrorTypeServer, "oops"), http.StatusInternalServerError},
		{ErrNotFound("override").WithStatusCode(http.StatusGone), http.StatusGone},
	}
	for _, tt := range tests {
		if got := tt.err.HTTPStatusCode(); got != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.err.Type, got, tt.want)
		}
	}
}

func TestOperationalError_ErrorString(t *testing.T) {
	e := ErrNotFound("widget missing")
	if got := e.Error(); got != "not_found: widget missing" {
		t.Errorf("Error() = %q", got)
	}
	e = e.WithCode("widget_gone")
	if got := e.Error(); got != "not_found (widget_gone): widget missing" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsOperational_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("stage auth: %w", ErrUnauthorized("nope"))
	if !IsOperational(wrapped) {
		t.Error("IsOperational() should see through wrapping")
	}
	oe, ok := AsOperational(wrapped)
	if !ok || oe.Type != ErrorTypeAuthentication {
		t.Errorf("AsOperational() = %v, %v", oe, ok)
	}
	if IsOperational(errors.New("plain")) {
		t.Error("plain error reported as operational")
	}
}

func TestErrorRouterFailure(t *testing.T) {
	cause := errors.New("root cause")
	f := &ErrorRouterFailure{Stage: "send-unauthorized", Cause: cause}
	if !IsErrorRouterFailure(f) {
		t.Error("IsErrorRouterFailure() = false")
	}
	if !errors.Is(f, cause) {
		t.Error("Unwrap() should expose the cause")
	}
	if IsErrorRouterFailure(cause) {
		t.Error("plain error reported as router failure")
	}
}

func TestOutcomeConstructors(t *testing.T) {
	if Continue().Action != ActionContinue {
		t.Error("Continue() action mismatch")
	}
	if Respond().Action != ActionRespond {
		t.Error("Respond() action mismatch")
	}
	cause := errors.New("x")
	out := Fail(cause)
	if out.Action != ActionFail || out.Err != cause {
		t.Errorf("Fail() = %+v", out)
	}
}
