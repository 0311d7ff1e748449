// Package relay provides the public API for embedding the pipeline engine.
// This is the stable API for external consumers.
package relay

import (
	"github.com/tjfontaine/relay/internal/runtime"
)

// Engine is the main entry point for running the pipeline engine.
// See internal/runtime.Engine for full documentation.
type Engine = runtime.Engine

// Option is a functional option for configuring an Engine.
type Option = runtime.Option

// New creates a new Engine with the given options.
// Example:
//
//	eng, err := relay.New(
//	    relay.WithConfigFile("config.yaml"),
//	    relay.WithSQLiteSessions("./data/sessions.db"),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithConfigFile = runtime.WithConfigFile
	WithConfig     = runtime.WithConfig

	// Session persistence
	WithMemorySessions = runtime.WithMemorySessions
	WithBoltSessions   = runtime.WithBoltSessions
	WithSQLiteSessions = runtime.WithSQLiteSessions

	// Advanced options
	WithLogger         = runtime.WithLogger
	WithSessionBackend = runtime.WithSessionBackend
	WithEventPublisher = runtime.WithEventPublisher
)
