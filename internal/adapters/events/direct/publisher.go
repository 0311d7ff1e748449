// Package direct provides an event publisher that writes dispatcher
// lifecycle events straight to a structured logger. This is the default for
// single-instance deployments; distributed setups can swap in a publisher
// that forwards to a bus instead.
package direct

import (
	"context"
	"log/slog"

	"github.com/tjfontaine/relay/internal/core/ports"
)

// Publisher implements ports.EventPublisher over slog.
type Publisher struct {
	logger *slog.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher. A nil logger uses slog.Default.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{logger: logger}
}

// Publish records one lifecycle event.
func (p *Publisher) Publish(ctx context.Context, ev ports.Event) {
	attrs := []any{
		slog.String("event", string(ev.Type)),
		slog.String("method", ev.Method),
		slog.String("path", ev.Path),
		slog.String("request_id", ev.RequestID),
		slog.Int("status", ev.Status),
	}

	switch ev.Type {
	case ports.EventPipelineFault:
		if ev.Err != nil {
			attrs = append(attrs, slog.String("error", ev.Err.Error()))
		}
		p.logger.ErrorContext(ctx, "pipeline fault", attrs...)
	case ports.EventRouteMiss:
		p.logger.WarnContext(ctx, "route miss", attrs...)
	default:
		p.logger.InfoContext(ctx, "request served", attrs...)
	}
}

// Close is a no-op for the direct publisher.
func (p *Publisher) Close() error {
	return nil
}
