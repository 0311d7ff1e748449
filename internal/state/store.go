// Package state implements the three-scope key/value store stages use to
// exchange data: request scope owned by one run, session scope behind a
// pluggable backend, and a process-lifetime global scope.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mitchellh/copystructure"

	"github.com/tjfontaine/relay/internal/core/domain"
	"github.com/tjfontaine/relay/internal/core/ports"
)

// Store holds the global scope and fronts the session backend. One Store is
// shared by all concurrent runs; per-run views are created with ForRequest.
type Store struct {
	mu     sync.RWMutex
	global map[string]any

	sessions ports.SessionBackend

	// Writes to the same session id serialize on a per-session mutex so two
	// racing requests from one session cannot interleave partial updates.
	// Entries are refcounted and dropped once idle so the map stays bounded
	// by in-flight sessions, not by session-id cardinality.
	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a store backed by the given session backend.
func New(sessions ports.SessionBackend) *Store {
	return &Store{
		global:   make(map[string]any),
		sessions: sessions,
		locks:    make(map[string]*sessionLock),
	}
}

// SetGlobal writes a process-lifetime value. Safe for concurrent use.
func (s *Store) SetGlobal(key string, value any) error {
	cp, err := copystructure.Copy(value)
	if err != nil {
		return fmt.Errorf("copy value for global key %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global[key] = cp
	return nil
}

// GetGlobal reads a process-lifetime value.
func (s *Store) GetGlobal(key string) (any, bool, error) {
	s.mu.RLock()
	v, ok := s.global[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	cp, err := copystructure.Copy(v)
	if err != nil {
		return nil, false, fmt.Errorf("copy value for global key %s: %w", key, err)
	}
	return cp, true, nil
}

// ClearSession removes all entries for the session. Idempotent.
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	unlock := s.lockSession(sessionID)
	defer unlock()
	return s.sessions.Clear(ctx, sessionID)
}

// ForRequest returns the per-run view bound to sessionID (may be empty).
// The request scope it owns requires no synchronization: exactly one run
// touches it.
func (s *Store) ForRequest(sessionID string) *RunState {
	return &RunState{
		store:     s,
		sessionID: sessionID,
		request:   make(map[string]any),
	}
}

// Close releases the session backend.
func (s *Store) Close() error {
	return s.sessions.Close()
}

func (s *Store) lockSession(sessionID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.locksMu.Unlock()
	}
}

func (s *Store) sessionGet(ctx context.Context, sessionID, key string) (any, bool, error) {
	raw, ok, err := s.sessions.Get(ctx, sessionID, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode session value %s/%s: %w", sessionID, key, err)
	}
	return v, true, nil
}

func (s *Store) sessionSet(ctx context.Context, sessionID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session value %s/%s: %w", sessionID, key, err)
	}
	unlock := s.lockSession(sessionID)
	defer unlock()
	return s.sessions.Set(ctx, sessionID, key, raw)
}

// RunState is the state view one pipeline run sees. It implements
// ports.State with request > session > global resolution for auto reads.
type RunState struct {
	store     *Store
	sessionID string
	request   map[string]any
}

var _ ports.State = (*RunState)(nil)

// SessionID returns the session id bound to this run, or "".
func (r *RunState) SessionID() string { return r.sessionID }

// Get reads key from the named scope. ScopeAuto checks request, then session
// when a session id is bound, then global, returning the first hit. Absence
// is (nil, false, nil), never an error.
func (r *RunState) Get(ctx context.Context, scope ports.Scope, key string) (any, bool, error) {
	switch scope {
	case ports.ScopeRequest:
		return r.requestGet(key)
	case ports.ScopeSession:
		if r.sessionID == "" {
			return nil, false, nil
		}
		return r.store.sessionGet(ctx, r.sessionID, key)
	case ports.ScopeGlobal:
		return r.store.GetGlobal(key)
	case ports.ScopeAuto:
		if v, ok, err := r.requestGet(key); err != nil || ok {
			return v, ok, err
		}
		if r.sessionID != "" {
			if v, ok, err := r.store.sessionGet(ctx, r.sessionID, key); err != nil || ok {
				return v, ok, err
			}
		}
		return r.store.GetGlobal(key)
	default:
		return nil, false, fmt.Errorf("unknown scope %q", scope)
	}
}

// Set writes key into exactly the named scope. ScopeAuto is invalid for
// writes; a session write without a bound session id fails with
// domain.ErrMissingSessionContext.
func (r *RunState) Set(ctx context.Context, scope ports.Scope, key string, value any) error {
	switch scope {
	case ports.ScopeRequest:
		cp, err := copystructure.Copy(value)
		if err != nil {
			return fmt.Errorf("copy value for request key %s: %w", key, err)
		}
		r.request[key] = cp
		return nil
	case ports.ScopeSession:
		if r.sessionID == "" {
			return domain.ErrMissingSessionContext
		}
		return r.store.sessionSet(ctx, r.sessionID, key, value)
	case ports.ScopeGlobal:
		return r.store.SetGlobal(key, value)
	default:
		return fmt.Errorf("scope %q is not writable", scope)
	}
}

func (r *RunState) requestGet(key string) (any, bool, error) {
	v, ok := r.request[key]
	if !ok {
		return nil, false, nil
	}
	cp, err := copystructure.Copy(v)
	if err != nil {
		return nil, false, fmt.Errorf("copy value for request key %s: %w", key, err)
	}
	return cp, true, nil
}
