// Package topo holds the in-memory topology model: the weighted graph
// over hosts and switches, its four lookup indexes, and the invariant
// checks that run on every Update.
//
// The graph is an arena of parallel vectors addressed by integer index,
// not a map of pointers — hosts and switches share one vertex index
// space, tagged by NodeKind. This is a deliberate departure from the
// map-of-pointers style graphs are often built with in Go: cyclic graph
// references and repeated string-keyed lookups are replaced by integer
// indices and a flat port index built once per Update.
package topo

import "strings"

// HostMac is a host's layer-2 address, canonical lowercase hex with
// colons (e.g. "02:00:00:00:00:01").
type HostMac string

// SwitchID is the controller's opaque device identifier, optionally
// carrying a transport prefix (e.g. "of:0000000000000001") that must be
// stripped via CleanDpid before it is used as a sidecar key.
type SwitchID string

// PortID is a controller port identifier. Controllers represent ports as
// strings, sometimes numeric, sometimes symbolic ("CONTROLLER"); it is
// treated as an opaque string throughout.
type PortID string

// NodeKind tags a vertex in the shared host/switch index space.
type NodeKind uint8

const (
	// NodeHost marks a vertex backed by a Host.
	NodeHost NodeKind = iota
	// NodeSwitch marks a vertex backed by a Switch.
	NodeSwitch
)

// NodeKey is the string form of a node identifier used for index and
// sidecar lookups: a HostMac for hosts, a SwitchID for switches.
type NodeKey string

// Location is a host's single attachment point: the switch it is
// plugged into and the port on that switch.
type Location struct {
	Switch SwitchID
	Port   PortID
}

// Host is a controller-reported end host. Invariant: Location.Switch
// must exist in the switch set (checked in Model.Update).
type Host struct {
	MAC      HostMac
	IPs      []string
	Location Location
}

// Switch is a controller-reported device believed to be an OpenFlow
// switch (type == "SWITCH" in the /devices listing).
type Switch struct {
	ID   SwitchID
	Dpid string // CleanDpid(ID); the sidecar key form
}

// Link is a directed adjacency record as reported by the controller.
// Links appear in both directions in controller listings; the graph
// treats them as undirected for pathfinding but the port index
// preserves direction so PortFor can answer "which port do I emit on".
type Link struct {
	SrcSwitch SwitchID
	SrcPort   PortID
	DstSwitch SwitchID
	DstPort   PortID
	State     string
}

// CleanDpid strips a transport prefix such as "of:" from a switch
// identifier, yielding the normalized form used as a sidecar key.
func CleanDpid(id SwitchID) string {
	s := string(id)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// portKey indexes the (node,node)->port map.
type portKey struct {
	from NodeKey
	to   NodeKey
}
