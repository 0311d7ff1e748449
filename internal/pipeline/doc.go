// Package pipeline implements the ordered stage sequence bound to one route.
//
// A pipeline is built once at registration time and never mutated afterward.
// Run executes stages strictly in registration order; each stage returns an
// outcome that is interpreted as control flow: continue to the next stage,
// respond and stop, or fail into the pipeline's error stage. The error stage
// runs at most once per run and must itself respond.
package pipeline
