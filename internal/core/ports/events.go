package ports

import (
	"context"
	"time"
)

// EventType classifies a dispatcher lifecycle event.
type EventType string

const (
	// EventRouteMiss records a request that matched no registered pipeline.
	EventRouteMiss EventType = "route_miss"
	// EventPipelineFault records an engine-contract violation or fatal
	// error-router failure surfaced by a run.
	EventPipelineFault EventType = "pipeline_fault"
	// EventRequestServed records a completed run.
	EventRequestServed EventType = "request_served"
)

// Event is a dispatcher lifecycle notification. The dispatcher only emits
// events; recording them (logs, metrics, storage) is the publisher's concern.
type Event struct {
	Type      EventType
	Method    string
	Path      string
	RequestID string
	Status    int
	Err       error
	Timestamp time.Time
}

// EventPublisher receives dispatcher lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event)
	Close() error
}
