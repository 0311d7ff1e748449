// Package ports defines the core interfaces of the engine. Implementations
// live in internal/pipeline, internal/state, and the adapter packages.
package ports

import (
	"context"

	"github.com/tjfontaine/relay/internal/core/domain"
)

// StageInput is the data passed to every stage invocation: the immutable
// request, the in-progress response, and the state store scoped to this run.
type StageInput struct {
	Request  *domain.Request
	Response *domain.Response
	State    State
}

// Stage is one named unit of request processing. Stages are stateless; all
// persisted effects go through the state store.
type Stage interface {
	// Name returns the identifier used in diagnostics and events.
	Name() string

	// Terminator reports whether this stage can produce a final respond
	// outcome. Every pipeline must contain at least one terminator.
	Terminator() bool

	// Process executes the stage. A non-nil error is equivalent to
	// returning domain.Fail(err).
	Process(ctx context.Context, in *StageInput) (domain.Outcome, error)
}

// ErrorStage converts a failed run into a final response. It is invoked at
// most once per run and must respond; returning anything else, or an error,
// is the fatal error-router failure condition.
type ErrorStage interface {
	// Name returns the identifier used in diagnostics and events.
	Name() string

	// Handle produces the final outcome for failure.
	Handle(ctx context.Context, failure error, in *StageInput) (domain.Outcome, error)
}
