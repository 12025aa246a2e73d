package topo

// edge is one entry in a vertex's adjacency list.
type edge struct {
	to     int
	weight float64
}

// Graph is the arena-of-indices undirected weighted graph over hosts and
// switches. Vertices are addressed by a dense int id; the adjacency
// list is a parallel slice indexed the same way. A NodeKey->id index
// supports the string-keyed lookups the rest of the system needs
// (host MACs, switch ids) without ever walking the vertex slice.
type Graph struct {
	keys  []NodeKey // id -> key
	kinds []NodeKind
	adj   [][]edge
	index map[NodeKey]int
}

// newGraph returns an empty graph ready for vertex insertion.
func newGraph() *Graph {
	return &Graph{index: make(map[NodeKey]int)}
}

// addVertex inserts a vertex if it is not already present and returns
// its id either way.
func (g *Graph) addVertex(key NodeKey, kind NodeKind) int {
	if id, ok := g.index[key]; ok {
		return id
	}
	id := len(g.keys)
	g.keys = append(g.keys, key)
	g.kinds = append(g.kinds, kind)
	g.adj = append(g.adj, nil)
	g.index[key] = id
	return id
}

// addEdge adds an undirected edge between two existing vertex ids. Call
// sites are responsible for avoiding duplicate parallel edges between
// the same pair with a lower weight if one exists, since Dijkstra/A*
// would otherwise ignore the better of two edges only by chance.
func (g *Graph) addEdge(a, b int, weight float64) {
	g.adj[a] = append(g.adj[a], edge{to: b, weight: weight})
	g.adj[b] = append(g.adj[b], edge{to: a, weight: weight})
}

// NumVertices returns the number of vertices in the graph.
func (g *Graph) NumVertices() int { return len(g.keys) }

// IndexOf returns the vertex id for a node key.
func (g *Graph) IndexOf(key NodeKey) (int, bool) {
	id, ok := g.index[key]
	return id, ok
}

// KeyOf returns the node key for a vertex id.
func (g *Graph) KeyOf(id int) NodeKey { return g.keys[id] }

// KindOf returns the node kind for a vertex id.
func (g *Graph) KindOf(id int) NodeKind { return g.kinds[id] }

// Neighbors returns the adjacency list for a vertex id. The returned
// slice must not be mutated by callers.
func (g *Graph) Neighbors(id int) []edge { return g.adj[id] }

// SwitchIndices returns the vertex ids whose kind is NodeSwitch, in
// ascending id order. Used to build the switch-only subgraph consumed
// by the A* backend's precomputed distance oracle.
func (g *Graph) SwitchIndices() []int {
	out := make([]int, 0, len(g.keys))
	for i, k := range g.kinds {
		if k == NodeSwitch {
			out = append(out, i)
		}
	}
	return out
}
