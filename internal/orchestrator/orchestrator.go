// Package orchestrator drives one run of the pipeline: update -> compute
// -> compile -> install. A run is a single atomic unit of work — there
// is no persistent state across invocations and no background service
// loop to drive; the orchestrator is invoked once per cmd/routectl
// command.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/routectl/routectl/internal/events"
	"github.com/routectl/routectl/internal/flow"
	"github.com/routectl/routectl/internal/flowcompiler"
	"github.com/routectl/routectl/internal/installer"
	"github.com/routectl/routectl/internal/metrics"
	"github.com/routectl/routectl/internal/routing"
	"github.com/routectl/routectl/internal/topo"
)

// State names one point in the run state machine.
type State string

const (
	StateIdle       State = "idle"
	StateUpdating   State = "updating"
	StateComputing  State = "computing"
	StateCompiling  State = "compiling"
	StateInstalling State = "installing"
	StateFailed     State = "failed"
)

// Result summarizes one completed run.
type Result struct {
	FinalState    State
	HostCount     int
	RulesCompiled int
	Install       installer.Result
	Duration      time.Duration
}

// Orchestrator wires the topology model, the selected routing backend,
// the flow compiler, and the installer into one driven run.
type Orchestrator struct {
	model     *topo.Model
	backend   routing.Backend
	compiler  *flowcompiler.Compiler
	installer *installer.Installer
	bus       *events.Bus
	logger    *slog.Logger

	mu    sync.Mutex
	state State
}

// New returns an Orchestrator ready to drive runs.
func New(model *topo.Model, backend routing.Backend, compiler *flowcompiler.Compiler, inst *installer.Installer, bus *events.Bus, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		model:     model,
		backend:   backend,
		compiler:  compiler,
		installer: inst,
		bus:       bus,
		logger:    logger,
		state:     StateIdle,
	}
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()

	if o.logger != nil {
		o.logger.Info("orchestrator state transition", "from", from, "to", to)
	}
	if o.bus != nil {
		o.bus.Publish(events.Event{
			Type:     events.EventRunStateChanged,
			RunState: &events.RunStateData{From: string(from), To: string(to)},
		})
	}
}

func timeStage(stage string, fn func()) {
	start := time.Now()
	fn()
	metrics.RunStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// CreateRoutes drives one full Idle -> Updating -> Computing ->
// Compiling -> Installing -> Idle run: refresh the topology, compute
// all-pairs shortest paths with the configured backend (which compiles
// them into rules as it goes — routing and compiling are pipelined
// within one call for efficiency, though the state machine still
// reports them as separate stages), and install the resulting set.
//
// On update failure the run transitions to Failed and the error
// propagates (a missing controller or incomplete topology is fatal).
// On zero hosts the run transitions straight back to Idle with a
// zero-rule result. Per-batch installation rejections are recorded in
// the result but do not fail the run.
func (o *Orchestrator) CreateRoutes(ctx context.Context) (Result, error) {
	start := time.Now()

	o.transition(StateUpdating)
	var updateErr error
	timeStage("update", func() { updateErr = o.model.Update(ctx) })
	if updateErr != nil {
		o.transition(StateFailed)
		metrics.RunsTotal.WithLabelValues(string(StateFailed)).Inc()
		return Result{FinalState: StateFailed, Duration: time.Since(start)}, fmt.Errorf("orchestrator update stage: %w", updateErr)
	}

	hosts := o.model.Hosts()
	if len(hosts) == 0 {
		o.transition(StateIdle)
		metrics.RunsTotal.WithLabelValues(string(StateIdle)).Inc()
		return Result{FinalState: StateIdle, HostCount: 0, Duration: time.Since(start)}, nil
	}

	o.transition(StateComputing)
	var set *flow.Set
	var computeErr error
	timeStage("compute", func() {
		set, computeErr = o.backend.ComputeAllPairsRules(ctx, o.model, o.compiler)
	})
	if computeErr != nil {
		o.transition(StateFailed)
		metrics.RunsTotal.WithLabelValues(string(StateFailed)).Inc()
		return Result{FinalState: StateFailed, HostCount: len(hosts), Duration: time.Since(start)}, fmt.Errorf("orchestrator compute stage: %w", computeErr)
	}

	o.transition(StateCompiling)
	// Compilation already happened inside ComputeAllPairsRules; this
	// transition exists so state observers (metrics, the status API)
	// see the full named sequence even though this implementation
	// pipelines the two stages for efficiency.

	o.transition(StateInstalling)
	var installResult installer.Result
	var installErr error
	timeStage("install", func() {
		installResult, installErr = o.installer.Install(ctx, set)
	})
	if installErr != nil {
		o.transition(StateFailed)
		metrics.RunsTotal.WithLabelValues(string(StateFailed)).Inc()
		return Result{FinalState: StateFailed, HostCount: len(hosts), RulesCompiled: set.Len(), Duration: time.Since(start)}, fmt.Errorf("orchestrator install stage: %w", installErr)
	}

	o.transition(StateIdle)
	metrics.RunsTotal.WithLabelValues(string(StateIdle)).Inc()
	return Result{
		FinalState:    StateIdle,
		HostCount:     len(hosts),
		RulesCompiled: set.Len(),
		Install:       installResult,
		Duration:      time.Since(start),
	}, nil
}

// DeleteRoutes fetches the controller's current flow table and removes
// every rule owned by this core's app id.
func (o *Orchestrator) DeleteRoutes(ctx context.Context) (Result, error) {
	start := time.Now()
	o.transition(StateInstalling)

	var result installer.Result
	var err error
	timeStage("install", func() { result, err = o.installer.Delete(ctx) })
	if err != nil {
		o.transition(StateFailed)
		metrics.RunsTotal.WithLabelValues(string(StateFailed)).Inc()
		return Result{FinalState: StateFailed, Duration: time.Since(start)}, fmt.Errorf("orchestrator delete stage: %w", err)
	}

	o.transition(StateIdle)
	metrics.RunsTotal.WithLabelValues(string(StateIdle)).Inc()
	return Result{FinalState: StateIdle, Install: result, Duration: time.Since(start)}, nil
}
