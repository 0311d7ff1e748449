package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tjfontaine/relay/internal/config"
	"github.com/tjfontaine/relay/internal/core/ports"
	"github.com/tjfontaine/relay/internal/state/bolt"
	"github.com/tjfontaine/relay/internal/state/memory"
	"github.com/tjfontaine/relay/internal/state/sqlite"
)

// Option is a functional option for configuring an Engine.
type Option func(*Engine) error

// WithConfigFile loads configuration from a YAML file plus RELAY_ env
// overrides.
func WithConfigFile(path string) Option {
	return func(e *Engine) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
		e.cfg = cfg
		return nil
	}
}

// WithConfig uses an already-built configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) error {
		e.cfg = cfg
		return nil
	}
}

// WithLogger sets the structured logger used by the host and the default
// event publisher.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithMemorySessions uses the in-process session backend (default).
// maxSessions of 0 means unbounded; ttl of 0 means sessions never expire.
func WithMemorySessions(maxSessions int, ttl time.Duration) Option {
	return func(e *Engine) error {
		e.sessions = memory.New(maxSessions, ttl)
		return nil
	}
}

// WithBoltSessions persists sessions in a bbolt database file.
func WithBoltSessions(path string) Option {
	return func(e *Engine) error {
		backend, err := bolt.New(path)
		if err != nil {
			return fmt.Errorf("create bolt session backend: %w", err)
		}
		e.sessions = backend
		return nil
	}
}

// WithSQLiteSessions persists sessions in a SQLite database.
func WithSQLiteSessions(path string) Option {
	return func(e *Engine) error {
		backend, err := sqlite.New(path)
		if err != nil {
			return fmt.Errorf("create sqlite session backend: %w", err)
		}
		e.sessions = backend
		return nil
	}
}

// WithSessionBackend uses a custom session backend.
func WithSessionBackend(backend ports.SessionBackend) Option {
	return func(e *Engine) error {
		e.sessions = backend
		return nil
	}
}

// WithEventPublisher uses a custom dispatcher event publisher.
func WithEventPublisher(pub ports.EventPublisher) Option {
	return func(e *Engine) error {
		e.events = pub
		return nil
	}
}
