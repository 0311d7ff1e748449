package ports

import "context"

// Scope selects the lifetime and visibility of a stored value.
type Scope string

const (
	// ScopeRequest lives for one pipeline run and is owned by it.
	ScopeRequest Scope = "request"
	// ScopeSession lives until the session expires or is cleared, shared by
	// runs carrying the same session id.
	ScopeSession Scope = "session"
	// ScopeGlobal lives for the process and is shared by all runs.
	ScopeGlobal Scope = "global"
	// ScopeAuto resolves reads request -> session -> global, returning the
	// first hit. Auto is invalid for writes: a write always names its scope.
	ScopeAuto Scope = "auto"
)

// State is the scoped key/value store a stage sees during one run. Values
// are stored and returned as independent copies so a caller mutating a value
// after a call never affects what the store holds.
type State interface {
	// Get reads key from the given scope (or resolves with ScopeAuto).
	// An absent key, or an absent session, yields (nil, false, nil).
	Get(ctx context.Context, scope Scope, key string) (any, bool, error)

	// Set writes key into exactly the named scope. Session writes without a
	// bound session id fail with domain.ErrMissingSessionContext.
	Set(ctx context.Context, scope Scope, key string, value any) error

	// SessionID returns the session id bound to this run, or "".
	SessionID() string
}

// SessionBackend is the pluggable persistence behind the session scope.
// Values cross this boundary JSON-encoded so backends stay storage-agnostic.
type SessionBackend interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error

	// Clear removes all entries for the session. Idempotent.
	Clear(ctx context.Context, sessionID string) error

	Close() error
}
