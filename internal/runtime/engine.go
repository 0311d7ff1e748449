// Package runtime assembles the engine: configuration, session backend,
// state store, dispatcher, event publisher, and the HTTP host.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tjfontaine/relay/internal/adapters/events/direct"
	"github.com/tjfontaine/relay/internal/config"
	"github.com/tjfontaine/relay/internal/core/ports"
	"github.com/tjfontaine/relay/internal/dispatch"
	"github.com/tjfontaine/relay/internal/server"
	"github.com/tjfontaine/relay/internal/state"
	"github.com/tjfontaine/relay/internal/state/bolt"
	"github.com/tjfontaine/relay/internal/state/memory"
	"github.com/tjfontaine/relay/internal/state/sqlite"
)

// Engine is the assembled pipeline engine plus its HTTP host.
type Engine struct {
	logger     *slog.Logger
	cfg        *config.Config
	sessions   ports.SessionBackend
	events     ports.EventPublisher
	store      *state.Store
	dispatcher *dispatch.Dispatcher
	srv        *server.Server

	mu      sync.Mutex
	cancel  context.CancelFunc
	serveCh chan error
}

// New builds an engine from options. Unset concerns get the single-instance
// defaults: env-only config, memory sessions, direct (slog) events.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.cfg == nil {
		cfg, err := config.Load("")
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		e.cfg = cfg
	}
	if e.sessions == nil {
		backend, err := backendFromConfig(e.cfg.Sessions)
		if err != nil {
			return nil, err
		}
		e.sessions = backend
	}
	if e.events == nil {
		e.events = direct.NewPublisher(e.logger)
	}

	e.store = state.New(e.sessions)
	e.dispatcher = dispatch.New(e.store, e.events)
	return e, nil
}

func backendFromConfig(cfg config.SessionsConfig) (ports.SessionBackend, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.New(cfg.Max, cfg.TTL), nil
	case "bolt":
		return bolt.New(cfg.Path)
	case "sqlite":
		return sqlite.New(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// Register binds a pipeline to (method, path) on the engine's dispatcher.
func (e *Engine) Register(method, path string, stages []ports.Stage, errorStage ports.ErrorStage) (uuid.UUID, error) {
	return e.dispatcher.Register(method, path, stages, errorStage)
}

// Dispatcher returns the engine's dispatcher, the entry point for hosting
// layers that embed the engine without its HTTP server.
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }

// Store returns the state store for global seeding and session
// administration.
func (e *Engine) Store() *state.Store { return e.store }

// Start launches the HTTP host. It returns once the server is serving;
// Shutdown stops it.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return fmt.Errorf("engine already started")
	}

	e.srv = server.New(e.cfg.Server.Port, e.cfg.Server.Timeout, e.logger, e.dispatcher)

	serveCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.serveCh = make(chan error, 1)
	go func() {
		e.serveCh <- e.srv.Start(serveCtx)
	}()
	return nil
}

// Shutdown stops the HTTP host and releases the store and publisher.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	cancel, serveCh := e.cancel, e.serveCh
	e.cancel, e.serveCh = nil, nil
	e.mu.Unlock()

	var serveErr error
	if cancel != nil {
		cancel()
		select {
		case serveErr = <-serveCh:
		case <-ctx.Done():
			serveErr = ctx.Err()
		}
	}

	if err := e.store.Close(); err != nil && serveErr == nil {
		serveErr = err
	}
	if err := e.events.Close(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
