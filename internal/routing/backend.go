// Package routing implements the three interchangeable all-pairs
// shortest-path backends: A* with a precomputed switch-distance
// oracle, parallel Dijkstra-CPU, and parallel Dijkstra-GPU (realized
// as a goroutine pool honoring the same data-in/matrices-out contract
// — there is no real GPU compute binding here).
//
// All three backends share one contract and one driver (runAllPairsCtx in
// common.go): only the path-finding strategy differs between them.
package routing

import (
	"context"

	"github.com/routectl/routectl/internal/flow"
	"github.com/routectl/routectl/internal/flowcompiler"
	"github.com/routectl/routectl/internal/topo"
)

// Backend is the runtime-selectable routing strategy: an explicit
// interface rather than global state or type-switch dispatch.
type Backend interface {
	// Name identifies the backend for metrics and logging.
	Name() string

	// ComputeAllPairsRules computes shortest paths for every unordered
	// host pair with distinct IPs and compiles them into rules via
	// compiler, returning the accumulated, deduplicated set.
	ComputeAllPairsRules(ctx context.Context, model *topo.Model, compiler *flowcompiler.Compiler) (*flow.Set, error)
}

// Config carries the tunables shared by every backend, sourced from
// [routing] and [routing.gpu] in configuration.
type Config struct {
	MaxWorkers int

	// GPU tuning knobs. BlockSize, GridMultiplier and BatchSize are
	// retained for API compatibility with a real accelerator binding
	// and have no effect in this goroutine-pool realization.
	// MaxPathLength bounds path reconstruction: a pair whose path would
	// exceed it is reported as having no path.
	GPUBlockSize      int
	GPUGridMultiplier int
	GPUBatchSize      int
	GPUMaxPathLength  int
}

// New constructs the named backend ("astar", "dijkstra-cpu",
// "dijkstra-gpu"). Unknown names fall back to "astar".
func New(name string, cfg Config) Backend {
	switch name {
	case "dijkstra-cpu":
		return newDijkstraCPU(cfg)
	case "dijkstra-gpu":
		return newDijkstraGPU(cfg)
	default:
		return newAStar(cfg)
	}
}
