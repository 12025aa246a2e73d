package topo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/routectl/routectl/internal/events"
	"github.com/routectl/routectl/internal/metrics"
	"github.com/routectl/routectl/internal/routeerr"
	"github.com/routectl/routectl/internal/sidecar"
)

// ControllerClient is the subset of the ONOS REST client the topology
// loader needs. Defined here (not in internal/onos) so this package has
// no import-time dependency on the HTTP transport.
type ControllerClient interface {
	Hosts(ctx context.Context) ([]Host, error)
	Switches(ctx context.Context) ([]Switch, error)
	Links(ctx context.Context) ([]Link, error)
}

// Config carries the tunables Model.Update needs that come from
// configuration rather than the controller: the host-switch edge
// weight and the default switch-switch weight used when the sidecar
// has no distance for a link.
type Config struct {
	HostSwitchWeight  float64
	DefaultEdgeWeight float64
}

// Model owns the graph and every index table built from it. It is
// rebuilt wholesale on every Update and is immutable in between —
// readers (the routing engine's workers) may share it without locking
// as long as no Update is concurrently in flight, which the
// orchestrator guarantees by running one stage at a time.
type Model struct {
	mu sync.RWMutex

	client  ControllerClient
	sidecar *sidecar.Data
	cfg     Config
	logger  *slog.Logger
	bus     *events.Bus

	graph     *Graph
	hosts     map[HostMac]Host
	switches  map[SwitchID]Switch
	links     []Link
	macToIP   map[HostMac]string
	macToLoc  map[HostMac]Location
	portMap   map[portKey]PortID
	switchSet map[SwitchID]struct{}
}

// New constructs a Model. sidecarData may be sidecar.Empty() if no
// sidecar file is configured.
func New(client ControllerClient, sidecarData *sidecar.Data, cfg Config, logger *slog.Logger, bus *events.Bus) *Model {
	if sidecarData == nil {
		sidecarData = sidecar.Empty()
	}
	return &Model{
		client:  client,
		sidecar: sidecarData,
		cfg:     cfg,
		logger:  logger,
		bus:     bus,
	}
}

// Update refreshes the model from the controller client: fetches
// hosts/switches/links and rebuilds the graph and all four indexes. It
// fails with routeerr.ErrTopologyIncomplete when hosts exist but links
// is empty, or when any host's location references a switch absent from
// the switch set. Update does not check graph connectivity and logs no
// warning for a disconnected graph; pairs left unreachable surface as
// PathNotFound events at routing time.
func (m *Model) Update(ctx context.Context) error {
	hosts, err := m.client.Hosts(ctx)
	if err != nil {
		metrics.TopologyUpdateErrors.WithLabelValues("hosts").Inc()
		return fmt.Errorf("fetching hosts: %w", routeerr.ErrControllerUnreachable)
	}
	switches, err := m.client.Switches(ctx)
	if err != nil {
		metrics.TopologyUpdateErrors.WithLabelValues("switches").Inc()
		return fmt.Errorf("fetching switches: %w", routeerr.ErrControllerUnreachable)
	}
	links, err := m.client.Links(ctx)
	if err != nil {
		metrics.TopologyUpdateErrors.WithLabelValues("links").Inc()
		return fmt.Errorf("fetching links: %w", routeerr.ErrControllerUnreachable)
	}

	if len(hosts) > 0 && len(links) == 0 {
		metrics.TopologyUpdateErrors.WithLabelValues("topology_incomplete").Inc()
		return fmt.Errorf("hosts present but no links reported: %w", routeerr.ErrTopologyIncomplete)
	}

	switchSet := make(map[SwitchID]struct{}, len(switches))
	switchByID := make(map[SwitchID]Switch, len(switches))
	for _, sw := range switches {
		switchSet[sw.ID] = struct{}{}
		switchByID[sw.ID] = sw
	}

	hostByMAC := make(map[HostMac]Host, len(hosts))
	for _, h := range hosts {
		if _, ok := switchSet[h.Location.Switch]; !ok {
			metrics.TopologyUpdateErrors.WithLabelValues("topology_incomplete").Inc()
			return fmt.Errorf("host %s attached to unknown switch %s: %w", h.MAC, h.Location.Switch, routeerr.ErrTopologyIncomplete)
		}
		hostByMAC[h.MAC] = h
	}

	graph := newGraph()
	for id := range switchByID {
		graph.addVertex(NodeKey(id), NodeSwitch)
	}
	for _, h := range hosts {
		graph.addVertex(NodeKey(h.MAC), NodeHost)
	}

	macToIP := make(map[HostMac]string, len(hosts))
	macToLoc := make(map[HostMac]Location, len(hosts))
	portMap := make(map[portKey]PortID)

	for _, h := range hosts {
		if len(h.IPs) > 0 {
			macToIP[h.MAC] = h.IPs[0]
		}
		macToLoc[h.MAC] = h.Location

		hostIdx, _ := graph.IndexOf(NodeKey(h.MAC))
		swIdx, _ := graph.IndexOf(NodeKey(h.Location.Switch))
		graph.addEdge(hostIdx, swIdx, m.cfg.HostSwitchWeight)

		portMap[portKey{from: NodeKey(h.Location.Switch), to: NodeKey(h.MAC)}] = h.Location.Port
	}

	addedEdge := make(map[[2]int]bool)
	for _, l := range links {
		srcIdx, ok1 := graph.IndexOf(NodeKey(l.SrcSwitch))
		dstIdx, ok2 := graph.IndexOf(NodeKey(l.DstSwitch))
		if !ok1 || !ok2 {
			continue
		}
		portMap[portKey{from: NodeKey(l.SrcSwitch), to: NodeKey(l.DstSwitch)}] = l.SrcPort

		key := [2]int{srcIdx, dstIdx}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if addedEdge[key] {
			continue
		}
		addedEdge[key] = true

		weight := m.EdgeWeight(switchByID[l.SrcSwitch], switchByID[l.DstSwitch])
		graph.addEdge(srcIdx, dstIdx, weight)
	}

	m.mu.Lock()
	m.hosts = hostByMAC
	m.switches = switchByID
	m.links = links
	m.graph = graph
	m.macToIP = macToIP
	m.macToLoc = macToLoc
	m.portMap = portMap
	m.switchSet = switchSet
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("topology updated", "hosts", len(hosts), "switches", len(switches), "links", len(links))
	}
	metrics.HostsDiscovered.Set(float64(len(hosts)))
	metrics.SwitchesDiscovered.Set(float64(len(switches)))
	metrics.LinksDiscovered.Set(float64(len(links)))

	return nil
}

// FindDistance probes the sidecar in both key orders. a==b returns 0.
func (m *Model) FindDistance(a, b string) (float64, bool) {
	if a == b {
		return 0, true
	}
	return m.sidecar.Distance(a, b)
}

// EdgeWeight resolves the switch-switch edge weight between two
// switches: the sidecar distance (tried by datapath id) if present,
// else the configured default, with a recorded event on miss.
func (m *Model) EdgeWeight(a, b Switch) float64 {
	if d, ok := m.FindDistance(a.Dpid, b.Dpid); ok {
		return d
	}
	if m.bus != nil {
		m.bus.Publish(events.Event{
			Type: events.EventDistanceUnknown,
			Pair: &events.PairData{A: a.Dpid, B: b.Dpid},
		})
	}
	return m.cfg.DefaultEdgeWeight
}

// PortFor answers "when at fromNode and the next hop is toNode, which
// physical port do I emit on?" in O(1) via the port-map index.
func (m *Model) PortFor(from, to NodeKey) (PortID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.portMap[portKey{from: from, to: to}]
	return p, ok
}

// HostSwitch returns the attachment switch for a host MAC.
func (m *Model) HostSwitch(mac HostMac) (SwitchID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.macToLoc[mac]
	if !ok {
		return "", false
	}
	return loc.Switch, true
}

// Graph returns the current graph. Safe to call only between Updates;
// callers must not retain it across a subsequent Update.
func (m *Model) Graph() *Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph
}

// Hosts returns a snapshot slice of all known hosts.
func (m *Model) Hosts() []Host {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Host, 0, len(m.hosts))
	for _, h := range m.hosts {
		out = append(out, h)
	}
	return out
}

// SwitchSet returns the set of known switch ids.
func (m *Model) SwitchSet() map[SwitchID]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[SwitchID]struct{}, len(m.switchSet))
	for k := range m.switchSet {
		out[k] = struct{}{}
	}
	return out
}

// HostSwitchWeightHint exposes the configured host-switch edge weight
// to the routing engine's A* heuristic, which must use the identical
// constant the graph was built with — every backend has to agree on
// this value or their rule sets diverge.
func (m *Model) HostSwitchWeightHint() float64 {
	return m.cfg.HostSwitchWeight
}

// IP returns the first known IP for a host MAC from the mac→ip index.
// Aliased-host detection in internal/routing reads Host.IPs directly
// and does not call it.
func (m *Model) IP(mac HostMac) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ip, ok := m.macToIP[mac]
	return ip, ok
}
