// Package flowcompiler turns a host-to-host path into per-switch flow
// rules: for every interior switch, emit a rule keyed on the arriving
// and departing ports, then repeat with the path reversed and
// eth_src/eth_dst swapped. A port-miss is recorded as a structured
// event rather than silently skipped.
package flowcompiler

import (
	"github.com/routectl/routectl/internal/events"
	"github.com/routectl/routectl/internal/flow"
	"github.com/routectl/routectl/internal/metrics"
	"github.com/routectl/routectl/internal/topo"
)

// Compiler holds the configuration the compiler needs: the model (for
// PortFor lookups) and the rule priority.
type Compiler struct {
	model    *topo.Model
	priority int
	bus      *events.Bus
}

// New returns a Compiler bound to model, emitting rules at the given
// priority.
func New(model *topo.Model, priority int, bus *events.Bus) *Compiler {
	return &Compiler{model: model, priority: priority, bus: bus}
}

// Bus returns the event bus the compiler publishes to, so callers
// driving the routing engine's own fan-out (PathNotFound events) can
// publish to the same bus without threading it through separately.
func (c *Compiler) Bus() *events.Bus { return c.bus }

// CompileBidirectional compiles both directions of path into rules: the
// path as given (ethSrc -> ethDst) and its reverse (ethDst -> ethSrc).
// path's first and last elements are the host endpoints; only interior
// elements (index 1..len-2) emit rules.
func (c *Compiler) CompileBidirectional(path []topo.NodeKey, ethSrc, ethDst topo.HostMac) []flow.Rule {
	rules := c.compileDirection(path, ethSrc, ethDst)
	reversed := make([]topo.NodeKey, len(path))
	for i, n := range path {
		reversed[len(path)-1-i] = n
	}
	rules = append(rules, c.compileDirection(reversed, ethDst, ethSrc)...)
	return rules
}

// compileDirection emits rules for the interior switches of one
// direction of path.
func (c *Compiler) compileDirection(path []topo.NodeKey, ethSrc, ethDst topo.HostMac) []flow.Rule {
	if len(path) < 3 {
		// Path endpoints only, no interior switch.
		return nil
	}

	rules := make([]flow.Rule, 0, len(path)-2)
	for i := 1; i <= len(path)-2; i++ {
		sw := path[i]
		inPort, ok1 := c.model.PortFor(sw, path[i-1])
		outPort, ok2 := c.model.PortFor(sw, path[i+1])
		if !ok1 || !ok2 {
			if c.bus != nil {
				c.bus.Publish(events.Event{
					Type: events.EventPortUnknown,
					Port: &events.PortData{Switch: string(sw), Toward: string(path[i-1]) + "/" + string(path[i+1])},
				})
			}
			metrics.RulesSkippedPortUnknown.Inc()
			continue
		}
		rules = append(rules, flow.Rule{
			Switch:    topo.SwitchID(sw),
			InPort:    inPort,
			OutPort:   outPort,
			Priority:  c.priority,
			EthSrc:    ethSrc,
			EthDst:    ethDst,
			Permanent: true,
		})
	}
	metrics.RulesCompiled.Add(float64(len(rules)))
	return rules
}
