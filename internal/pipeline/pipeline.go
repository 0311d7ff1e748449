package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/relay/internal/core/domain"
	"github.com/tjfontaine/relay/internal/core/ports"
)

var tracer = otel.Tracer("relay/pipeline")

// Pipeline is an immutable, ordered sequence of stages plus exactly one
// error stage, bound to a (method, path) route.
type Pipeline struct {
	id         uuid.UUID
	method     string
	path       string
	stages     []ports.Stage
	errorStage ports.ErrorStage
}

// New validates and builds a pipeline. Validation happens here, at
// registration time, so a faulty pipeline never serves traffic:
// no stages is domain.ErrEmptyPipeline, no terminator-capable stage is
// domain.ErrMissingTerminator, and a missing error stage is rejected.
func New(method, path string, stages []ports.Stage, errorStage ports.ErrorStage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%s %s: %w", method, path, domain.ErrEmptyPipeline)
	}
	if errorStage == nil {
		return nil, fmt.Errorf("%s %s: pipeline requires an error stage", method, path)
	}
	hasTerminator := false
	for _, s := range stages {
		if s.Terminator() {
			hasTerminator = true
			break
		}
	}
	if !hasTerminator {
		return nil, fmt.Errorf("%s %s: %w", method, path, domain.ErrMissingTerminator)
	}

	owned := make([]ports.Stage, len(stages))
	copy(owned, stages)

	return &Pipeline{
		id:         uuid.New(),
		method:     method,
		path:       path,
		stages:     owned,
		errorStage: errorStage,
	}, nil
}

// ID returns the pipeline's registration id.
func (p *Pipeline) ID() uuid.UUID { return p.id }

// Method returns the bound HTTP-style method.
func (p *Pipeline) Method() string { return p.method }

// Path returns the bound path.
func (p *Pipeline) Path() string { return p.path }

// Run executes the stages in registration order against the given request,
// response, and run-scoped state. On success the response is finalized and
// Run returns nil. A fail outcome routes through the error stage exactly
// once. Engine-contract violations and fatal error-router failures are
// returned as errors for the dispatcher to convert.
func (p *Pipeline) Run(ctx context.Context, req *domain.Request, resp *domain.Response, st ports.State) error {
	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("pipeline.method", p.method),
		attribute.String("pipeline.path", p.path),
	))
	defer span.End()

	in := &ports.StageInput{Request: req, Response: resp, State: st}

	for _, stage := range p.stages {
		// A cancelled request stops advancing. Sealing the response here
		// guarantees a still-suspended stage that wakes up later gets
		// ErrAlreadyResponded instead of writing to a disconnected caller.
		if err := ctx.Err(); err != nil {
			p.seal(resp)
			return err
		}

		span.AddEvent("stage", trace.WithAttributes(attribute.String("stage.name", stage.Name())))

		out := p.invoke(ctx, stage, in)
		switch out.Action {
		case domain.ActionContinue:
			// next stage
		case domain.ActionRespond:
			return p.finish(resp)
		case domain.ActionFail:
			failure := out.Err
			if failure == nil {
				failure = fmt.Errorf("stage %s failed without an error", stage.Name())
			}
			return p.routeError(ctx, failure, in)
		default:
			return p.routeError(ctx, fmt.Errorf("stage %s returned unknown action %q", stage.Name(), out.Action), in)
		}
	}

	// Registration guarantees a terminator; reaching here means a stage that
	// claimed to terminate never responded.
	return fmt.Errorf("%s %s: %w", p.method, p.path, domain.ErrUnterminatedPipeline)
}

// invoke runs one stage, folding returned errors and panics into a fail
// outcome so nothing escapes a run unhandled.
func (p *Pipeline) invoke(ctx context.Context, stage ports.Stage, in *ports.StageInput) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.Fail(fmt.Errorf("stage %s panicked: %v", stage.Name(), r))
		}
	}()

	out, err := stage.Process(ctx, in)
	if err != nil {
		return domain.Fail(err)
	}
	return out
}

// routeError transfers control to the error stage, exactly once. The error
// stage must respond; anything else is the fatal error-router failure.
func (p *Pipeline) routeError(ctx context.Context, failure error, in *ports.StageInput) error {
	// Caller already gone: don't hand the error stage a response it must
	// not write to.
	if err := ctx.Err(); err != nil {
		p.seal(in.Response)
		return err
	}

	out, err := p.handle(ctx, failure, in)
	if err != nil {
		return &domain.ErrorRouterFailure{Stage: p.errorStage.Name(), Cause: errors.Join(failure, err)}
	}
	if out.Action != domain.ActionRespond {
		return &domain.ErrorRouterFailure{
			Stage: p.errorStage.Name(),
			Cause: fmt.Errorf("handling %w: produced %q instead of responding", failure, out.Action),
		}
	}
	if err := p.finish(in.Response); err != nil {
		return &domain.ErrorRouterFailure{Stage: p.errorStage.Name(), Cause: errors.Join(failure, err)}
	}
	return nil
}

func (p *Pipeline) handle(ctx context.Context, failure error, in *ports.StageInput) (out domain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.Outcome{}
			err = fmt.Errorf("error stage %s panicked: %v", p.errorStage.Name(), r)
		}
	}()
	return p.errorStage.Handle(ctx, failure, in)
}

// finish seals the response after a respond outcome. A stage that sealed the
// descriptor itself is tolerated.
func (p *Pipeline) finish(resp *domain.Response) error {
	if err := resp.Finalize(); err != nil && !errors.Is(err, domain.ErrAlreadyResponded) {
		return err
	}
	return nil
}

// seal finalizes without caring whether it already happened.
func (p *Pipeline) seal(resp *domain.Response) {
	_ = resp.Finalize()
}
