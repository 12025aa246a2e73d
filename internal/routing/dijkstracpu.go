package routing

import (
	"container/heap"
	"context"
	"math"
	"sync"

	"github.com/routectl/routectl/internal/flow"
	"github.com/routectl/routectl/internal/flowcompiler"
	"github.com/routectl/routectl/internal/metrics"
	"github.com/routectl/routectl/internal/topo"
)

// pathTolerance is the floating-point slack allowed when comparing
// dist[src,p]+edge(p,cur) against dist[src,cur] during path
// reconstruction.
const pathTolerance = 1e-6

// dijkstraCPUBackend runs single-source Dijkstra repeated for every
// vertex across a worker pool, producing a dense V×V distance matrix,
// with paths reconstructed by predecessor backtracking. A goroutine
// pool over shared read-only graph data replaces process-pool
// parallelism, since Go has no interpreter lock to dodge.
type dijkstraCPUBackend struct {
	cfg Config
}

func newDijkstraCPU(cfg Config) *dijkstraCPUBackend { return &dijkstraCPUBackend{cfg: cfg} }

func (b *dijkstraCPUBackend) Name() string { return "dijkstra-cpu" }

func (b *dijkstraCPUBackend) ComputeAllPairsRules(ctx context.Context, model *topo.Model, compiler *flowcompiler.Compiler) (*flow.Set, error) {
	graph := model.Graph()
	v := graph.NumVertices()
	workers := workerCount(b.cfg.MaxWorkers, v)

	dist := computeDistanceMatrix(ctx, graph, workers)

	find := func(a, bKey topo.NodeKey) ([]topo.NodeKey, bool) {
		startID, ok1 := graph.IndexOf(a)
		goalID, ok2 := graph.IndexOf(bKey)
		if !ok1 || !ok2 {
			return nil, false
		}
		path, found := reconstructFromMatrix(graph, dist, startID, goalID)
		if !found {
			return nil, false
		}
		keys := make([]topo.NodeKey, len(path))
		for i, id := range path {
			keys[i] = graph.KeyOf(id)
		}
		return keys, true
	}

	metrics.RoutingInvocations.WithLabelValues(b.Name()).Inc()
	return runAllPairsCtx(ctx, model, compiler, find, workers, b.Name()), nil
}

// computeDistanceMatrix runs one single-source Dijkstra per vertex,
// fanned out across a fixed worker pool. Each worker writes only to
// its own row of dist, so no lock is needed on the matrix itself.
func computeDistanceMatrix(ctx context.Context, g *topo.Graph, workers int) [][]float64 {
	v := g.NumVertices()
	dist := make([][]float64, v)

	jobs := make(chan int, v)
	for i := 0; i < v; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				dist[src] = dijkstraFullRow(g, src)
			}
		}()
	}
	wg.Wait()
	return dist
}

// dijkstraFullRow computes the distance from src to every vertex over
// the full graph (hosts and switches both), returning math.Inf(1) for
// unreachable vertices.
func dijkstraFullRow(g *topo.Graph, src int) []float64 {
	v := g.NumVertices()
	dist := make([]float64, v)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[src] = 0

	pq := &nodePQ{{id: src, dist: 0}}
	heap.Init(pq)
	visited := make([]bool, v)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(nodeItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		for _, e := range g.Neighbors(cur.id) {
			nd := cur.dist + e.weight
			if nd < dist[e.to] {
				dist[e.to] = nd
				heap.Push(pq, nodeItem{id: e.to, dist: nd})
			}
		}
	}
	return dist
}

// reconstructFromMatrix backtracks from goal to start using dist,
// which must be a full V-row distance matrix indexed [source][vertex].
// At each step it picks the predecessor p minimizing dist[start][p]
// among those satisfying dist[start][p]+edge(p,cur) == dist[start][cur]
// within pathTolerance, ties broken by the lowest vertex index, so
// reconstruction is deterministic within this backend.
func reconstructFromMatrix(g *topo.Graph, dist [][]float64, start, goal int) ([]int, bool) {
	if math.IsInf(dist[start][goal], 1) {
		return nil, false
	}
	if start == goal {
		return []int{start}, true
	}

	path := []int{goal}
	cur := goal
	visitedGuard := make(map[int]bool)
	for cur != start {
		if visitedGuard[cur] {
			// Defensive: a cycle in the predecessor chain would mean a
			// tie-break bug; treat as no path rather than loop forever.
			return nil, false
		}
		visitedGuard[cur] = true

		bestPred := -1
		bestDist := math.Inf(1)
		for _, e := range g.Neighbors(cur) {
			candidate := dist[start][e.to] + e.weight
			if candidate < dist[start][cur]-pathTolerance || candidate > dist[start][cur]+pathTolerance {
				continue
			}
			if dist[start][e.to] < bestDist-pathTolerance ||
				(math.Abs(dist[start][e.to]-bestDist) <= pathTolerance && (bestPred == -1 || e.to < bestPred)) {
				bestDist = dist[start][e.to]
				bestPred = e.to
			}
		}
		if bestPred == -1 {
			return nil, false
		}
		path = append(path, bestPred)
		cur = bestPred
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}
