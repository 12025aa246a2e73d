package routing

import (
	"container/heap"
	"context"
	"sync"

	"github.com/routectl/routectl/internal/flow"
	"github.com/routectl/routectl/internal/flowcompiler"
	"github.com/routectl/routectl/internal/metrics"
	"github.com/routectl/routectl/internal/topo"
)

// aStarBackend uses a precomputed switch-to-switch all-pairs distance
// oracle that makes the heuristic exact on the metric, so A*
// degenerates to best-first search with O(1) heuristic lookups.
type aStarBackend struct {
	cfg Config
}

func newAStar(cfg Config) *aStarBackend { return &aStarBackend{cfg: cfg} }

func (b *aStarBackend) Name() string { return "astar" }

func (b *aStarBackend) ComputeAllPairsRules(ctx context.Context, model *topo.Model, compiler *flowcompiler.Compiler) (*flow.Set, error) {
	graph := model.Graph()
	oracle := newSwitchOracle(graph)

	anchorOf := func(id int) int {
		if graph.KindOf(id) == topo.NodeSwitch {
			return id
		}
		mac := topo.HostMac(graph.KeyOf(id))
		sw, ok := model.HostSwitch(mac)
		if !ok {
			return id
		}
		swID, ok := graph.IndexOf(topo.NodeKey(sw))
		if !ok {
			return id
		}
		return swID
	}
	hostOffset := func(id int) float64 {
		if graph.KindOf(id) == topo.NodeHost {
			return model.HostSwitchWeightHint()
		}
		return 0
	}

	cache := newPathCache()

	find := func(a, b topo.NodeKey) ([]topo.NodeKey, bool) {
		key := sortedPairKey(string(a), string(b))
		if cached, ok := cache.get(key); ok {
			if cached == nil {
				return nil, false
			}
			if string(cached[0]) == string(a) {
				return cached, true
			}
			return reverseKeys(cached), true
		}

		startID, ok1 := graph.IndexOf(a)
		goalID, ok2 := graph.IndexOf(b)
		if !ok1 || !ok2 {
			cache.put(key, nil)
			return nil, false
		}

		path, found := aStarSearch(graph, startID, goalID, func(u, v int) float64 {
			return oracle.distance(anchorOf(u), anchorOf(v)) + hostOffset(u) + hostOffset(v)
		})
		if !found {
			cache.put(key, nil)
			return nil, false
		}
		keys := make([]topo.NodeKey, len(path))
		for i, id := range path {
			keys[i] = graph.KeyOf(id)
		}
		cache.put(key, keys)
		return keys, true
	}

	metrics.RoutingInvocations.WithLabelValues(b.Name()).Inc()
	workers := workerCount(b.cfg.MaxWorkers, graph.NumVertices())
	return runAllPairsCtx(ctx, model, compiler, find, workers, b.Name()), nil
}

// switchOracle is the precomputed switch-to-switch all-pairs shortest
// path table, computed once per invocation via Dijkstra-all-pairs over
// the subgraph induced by the switch set.
type switchOracle struct {
	graph *topo.Graph
	dist  map[int]map[int]float64
}

func newSwitchOracle(g *topo.Graph) *switchOracle {
	o := &switchOracle{graph: g, dist: make(map[int]map[int]float64)}
	for _, s := range g.SwitchIndices() {
		o.dist[s] = dijkstraSwitchOnly(g, s)
	}
	return o
}

// distance returns the precomputed switch-to-switch distance, or 0 if
// either endpoint is not itself a switch vertex (should not occur once
// anchorOf has run, but stays safe rather than panicking).
func (o *switchOracle) distance(a, b int) float64 {
	if a == b {
		return 0
	}
	row, ok := o.dist[a]
	if !ok {
		return 0
	}
	return row[b]
}

// dijkstraSwitchOnly runs single-source Dijkstra from src, traversing
// only edges whose far endpoint is itself a switch vertex. Priority
// queue shape grounded on katalvlaran-lvlath/graph/dijkstra.go's
// nodeItem/nodePQ, adapted from string ids to integer vertex ids.
func dijkstraSwitchOnly(g *topo.Graph, src int) map[int]float64 {
	dist := make(map[int]float64)
	dist[src] = 0

	pq := &nodePQ{{id: src, dist: 0}}
	heap.Init(pq)

	visited := make(map[int]bool)
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(nodeItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		for _, e := range g.Neighbors(cur.id) {
			if g.KindOf(e.to) != topo.NodeSwitch {
				continue
			}
			nd := cur.dist + e.weight
			if d, ok := dist[e.to]; !ok || nd < d {
				dist[e.to] = nd
				heap.Push(pq, nodeItem{id: e.to, dist: nd})
			}
		}
	}
	return dist
}

// nodeItem and nodePQ are a container/heap priority queue over (vertex
// id, distance), grounded on lvlath's dijkstra.go nodeItem/nodePQ.
type nodeItem struct {
	id   int
	dist float64
}

type nodePQ []nodeItem

func (pq nodePQ) Len() int            { return len(pq) }
func (pq nodePQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq nodePQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(nodeItem)) }
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// aStarSearch is a standard A* search over the full host+switch graph
// using heuristic h, admissible and consistent since h equals the
// true switch-subgraph shortest-path cost.
func aStarSearch(g *topo.Graph, start, goal int, h func(u, v int) float64) ([]int, bool) {
	gScore := map[int]float64{start: 0}
	came := map[int]int{}
	open := &nodePQ{{id: start, dist: h(start, goal)}}
	heap.Init(open)
	closed := make(map[int]bool)

	for open.Len() > 0 {
		cur := heap.Pop(open).(nodeItem)
		if cur.id == goal {
			return reconstructPath(came, start, goal), true
		}
		if closed[cur.id] {
			continue
		}
		closed[cur.id] = true

		for _, e := range g.Neighbors(cur.id) {
			tentative := gScore[cur.id] + e.weight
			if d, ok := gScore[e.to]; ok && tentative >= d {
				continue
			}
			came[e.to] = cur.id
			gScore[e.to] = tentative
			heap.Push(open, nodeItem{id: e.to, dist: tentative + h(e.to, goal)})
		}
	}
	return nil, false
}

func reconstructPath(came map[int]int, start, goal int) []int {
	path := []int{goal}
	cur := goal
	for cur != start {
		prev, ok := came[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// pathCache caches a found path keyed by the sorted pair of endpoints:
// a hit for the reverse direction returns the reversed list. A cached
// nil value means "known to have no path".
type pathCache struct {
	mu    sync.Mutex
	found map[[2]string][]topo.NodeKey
}

func newPathCache() *pathCache {
	return &pathCache{found: make(map[[2]string][]topo.NodeKey)}
}

func (c *pathCache) get(key [2]string) ([]topo.NodeKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.found[key]
	return v, ok
}

func (c *pathCache) put(key [2]string, path []topo.NodeKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.found[key] = path
}

func sortedPairKey(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

func reverseKeys(keys []topo.NodeKey) []topo.NodeKey {
	out := make([]topo.NodeKey, len(keys))
	for i, k := range keys {
		out[len(keys)-1-i] = k
	}
	return out
}
