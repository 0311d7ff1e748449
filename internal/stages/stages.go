// Package stages provides the built-in stage toolkit: function adapters plus
// a few ready-made stages (header auth, request logging, static responders)
// that applications compose into pipelines.
package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tjfontaine/relay/internal/core/domain"
	"github.com/tjfontaine/relay/internal/core/ports"
)

// Func adapts a plain function into a ports.Stage.
type Func struct {
	name       string
	terminator bool
	fn         func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error)
}

var _ ports.Stage = (*Func)(nil)

// New wraps fn as a non-terminating stage.
func New(name string, fn func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error)) *Func {
	return &Func{name: name, fn: fn}
}

// NewTerminator wraps fn as a stage capable of producing the final response.
func NewTerminator(name string, fn func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error)) *Func {
	return &Func{name: name, terminator: true, fn: fn}
}

func (f *Func) Name() string     { return f.name }
func (f *Func) Terminator() bool { return f.terminator }

func (f *Func) Process(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
	return f.fn(ctx, in)
}

// ErrorFunc adapts a plain function into a ports.ErrorStage.
type ErrorFunc struct {
	name string
	fn   func(ctx context.Context, failure error, in *ports.StageInput) (domain.Outcome, error)
}

var _ ports.ErrorStage = (*ErrorFunc)(nil)

// NewErrorStage wraps fn as an error stage.
func NewErrorStage(name string, fn func(ctx context.Context, failure error, in *ports.StageInput) (domain.Outcome, error)) *ErrorFunc {
	return &ErrorFunc{name: name, fn: fn}
}

func (f *ErrorFunc) Name() string { return f.name }

func (f *ErrorFunc) Handle(ctx context.Context, failure error, in *ports.StageInput) (domain.Outcome, error) {
	return f.fn(ctx, failure, in)
}

// HeaderAuth fails with an authentication error unless the request carries
// header with exactly the expected value.
func HeaderAuth(header, expected string) ports.Stage {
	return New("check-"+header, func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		if in.Request.Header.Get(header) != expected {
			return domain.Fail(domain.ErrUnauthorized("missing or invalid " + header + " header")), nil
		}
		return domain.Continue(), nil
	})
}

// RequestLog logs the request line and continues. All observability beyond
// this lives in the hosting layer.
func RequestLog(logger *slog.Logger) ports.Stage {
	return New("request-log", func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		logger.InfoContext(ctx, "pipeline request",
			slog.String("method", in.Request.Method),
			slog.String("path", in.Request.Path),
			slog.String("session_id", in.State.SessionID()),
		)
		return domain.Continue(), nil
	})
}

// Static responds with a fixed status, content type, and body.
func Static(status int, contentType string, body []byte) ports.Stage {
	return NewTerminator("static", func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		if err := in.Response.SetStatus(status); err != nil {
			return domain.Outcome{}, err
		}
		if contentType != "" {
			if err := in.Response.SetHeader("Content-Type", contentType); err != nil {
				return domain.Outcome{}, err
			}
		}
		if err := in.Response.Write(body); err != nil {
			return domain.Outcome{}, err
		}
		return domain.Respond(), nil
	})
}

// JSON responds with the JSON encoding of v.
func JSON(status int, v any) ports.Stage {
	return NewTerminator("json", func(ctx context.Context, in *ports.StageInput) (domain.Outcome, error) {
		body, err := json.Marshal(v)
		if err != nil {
			return domain.Outcome{}, fmt.Errorf("encode response body: %w", err)
		}
		if err := in.Response.SetStatus(status); err != nil {
			return domain.Outcome{}, err
		}
		if err := in.Response.SetHeader("Content-Type", "application/json"); err != nil {
			return domain.Outcome{}, err
		}
		if err := in.Response.Write(body); err != nil {
			return domain.Outcome{}, err
		}
		return domain.Respond(), nil
	})
}
