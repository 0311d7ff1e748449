// Package dispatch maps incoming request descriptors to registered pipelines
// and converts everything a run can produce into a response descriptor. It is
// the engine's single entry point for the hosting layer.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/relay/internal/core/domain"
	"github.com/tjfontaine/relay/internal/core/ports"
	"github.com/tjfontaine/relay/internal/pipeline"
	"github.com/tjfontaine/relay/internal/state"
)

type routeKey struct {
	method string
	path   string
}

// Dispatcher owns the route table. Registration happens at application
// startup; Route is safe for concurrent use and runs for different requests
// are fully independent.
type Dispatcher struct {
	mu     sync.RWMutex
	routes map[routeKey]*pipeline.Pipeline

	store  *state.Store
	events ports.EventPublisher
}

// New creates a dispatcher over the given state store. The dispatcher never
// logs itself, it only emits; a nil publisher silences it.
func New(store *state.Store, events ports.EventPublisher) *Dispatcher {
	return &Dispatcher{
		routes: make(map[routeKey]*pipeline.Pipeline),
		store:  store,
		events: events,
	}
}

// Register binds a validated pipeline to exact (method, path). A second
// registration for the same route fails with domain.ErrDuplicateRoute and
// leaves the original pipeline untouched.
func (d *Dispatcher) Register(method, path string, stages []ports.Stage, errorStage ports.ErrorStage) (uuid.UUID, error) {
	pl, err := pipeline.New(method, path, stages, errorStage)
	if err != nil {
		return uuid.Nil, err
	}

	key := routeKey{method: method, path: path}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.routes[key]; exists {
		return uuid.Nil, fmt.Errorf("%s %s: %w", method, path, domain.ErrDuplicateRoute)
	}
	d.routes[key] = pl
	return pl.ID(), nil
}

// Replace swaps the pipeline for (method, path), registering it if absent.
// Replacement builds a whole new pipeline; a live pipeline is never mutated.
func (d *Dispatcher) Replace(method, path string, stages []ports.Stage, errorStage ports.ErrorStage) (uuid.UUID, error) {
	pl, err := pipeline.New(method, path, stages, errorStage)
	if err != nil {
		return uuid.Nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[routeKey{method: method, path: path}] = pl
	return pl.ID(), nil
}

// Deregister removes a route, reporting whether it existed.
func (d *Dispatcher) Deregister(method, path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := routeKey{method: method, path: path}
	_, ok := d.routes[key]
	delete(d.routes, key)
	return ok
}

// Routes returns the registered (method, path) pairs.
func (d *Dispatcher) Routes() [][2]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([][2]string, 0, len(d.routes))
	for k := range d.routes {
		out = append(out, [2]string{k.method, k.path})
	}
	return out
}

// Route looks up the pipeline for the request and runs it. It always returns
// a finalized response: a default not-found response when no route matches,
// the pipeline's response on success, or a generic failure response when the
// run surfaces an engine-contract violation or error-router failure. Errors
// never escape; they are emitted as events for an external collaborator to
// record.
func (d *Dispatcher) Route(ctx context.Context, req *domain.Request) *domain.Response {
	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	d.mu.RLock()
	pl, ok := d.routes[routeKey{method: req.Method, path: req.Path}]
	d.mu.RUnlock()

	if !ok {
		resp := d.notFound(req)
		d.emit(ctx, ports.Event{
			Type:      ports.EventRouteMiss,
			Method:    req.Method,
			Path:      req.Path,
			RequestID: requestID,
			Status:    resp.Status(),
		})
		return resp
	}

	resp := domain.NewResponse()
	runState := d.store.ForRequest(req.SessionID)

	err := pl.Run(ctx, req, resp, runState)
	if err == nil {
		d.emit(ctx, ports.Event{
			Type:      ports.EventRequestServed,
			Method:    req.Method,
			Path:      req.Path,
			RequestID: requestID,
			Status:    resp.Status(),
		})
		return resp
	}

	// Caller disconnected: the run sealed the response already and there is
	// nobody left to send a failure body to.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resp
	}

	fatal := d.fatal()
	d.emit(ctx, ports.Event{
		Type:      ports.EventPipelineFault,
		Method:    req.Method,
		Path:      req.Path,
		RequestID: requestID,
		Status:    fatal.Status(),
		Err:       err,
	})
	return fatal
}

// Store exposes the underlying state store for session administration
// (ClearSession, global seeding at startup).
func (d *Dispatcher) Store() *state.Store { return d.store }

func (d *Dispatcher) notFound(req *domain.Request) *domain.Response {
	resp := domain.NewResponse()
	_ = resp.SetStatus(http.StatusNotFound)
	_ = resp.SetHeader("Content-Type", "application/json")
	body, _ := json.Marshal(map[string]any{
		"error": map[string]string{
			"type":    string(domain.ErrorTypeNotFound),
			"message": fmt.Sprintf("no route for %s %s", req.Method, req.Path),
		},
	})
	_ = resp.Write(body)
	_ = resp.Finalize()
	return resp
}

// fatal is the last-resort response for runs that broke the engine contract.
// The message is fixed: internal detail travels in the event, not the body.
func (d *Dispatcher) fatal() *domain.Response {
	resp := domain.NewResponse()
	_ = resp.SetStatus(http.StatusInternalServerError)
	_ = resp.SetHeader("Content-Type", "application/json")
	body, _ := json.Marshal(map[string]any{
		"error": map[string]string{
			"type":    string(domain.ErrorTypeServer),
			"message": "internal error",
		},
	})
	_ = resp.Write(body)
	_ = resp.Finalize()
	return resp
}

func (d *Dispatcher) emit(ctx context.Context, ev ports.Event) {
	if d.events == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	d.events.Publish(ctx, ev)
}
