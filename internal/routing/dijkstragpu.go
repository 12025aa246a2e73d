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

// gpuInfinity is the fixed infinity sentinel for the float32 distance
// matrix (no IEEE Inf in play, to mirror how a real GPU kernel would
// represent "unreachable" without relying on float32 infinity handling
// on every target accelerator).
const gpuInfinity float32 = 1e9

const defaultGPUBatchSize = 1000
const defaultGPUMaxPathLength = 64

// dijkstraGPUBackend has no GPU compute binding backing it; the "one
// parallel unit of work per source vertex" contract is realized with
// a goroutine pool — the same fan-out/gather shape as the CPU backend
// — operating on float32 matrices with the gpuInfinity sentinel.
// Paths are then reconstructed one host pair at a time by the shared
// runAllPairsCtx worker pool, bounded by MaxPathLength; there is no
// separate batched reconstruction pass, and GPUBatchSize,
// GPUBlockSize and GPUGridMultiplier are accepted for API
// compatibility with a real accelerator binding but not used.
type dijkstraGPUBackend struct {
	cfg Config
}

func newDijkstraGPU(cfg Config) *dijkstraGPUBackend {
	if cfg.GPUBatchSize <= 0 {
		cfg.GPUBatchSize = defaultGPUBatchSize
	}
	if cfg.GPUMaxPathLength <= 0 {
		cfg.GPUMaxPathLength = defaultGPUMaxPathLength
	}
	return &dijkstraGPUBackend{cfg: cfg}
}

func (b *dijkstraGPUBackend) Name() string { return "dijkstra-gpu" }

func (b *dijkstraGPUBackend) ComputeAllPairsRules(ctx context.Context, model *topo.Model, compiler *flowcompiler.Compiler) (*flow.Set, error) {
	graph := model.Graph()
	v := graph.NumVertices()
	workers := workerCount(b.cfg.MaxWorkers, v)

	dist := computeDistanceMatrixF32(ctx, graph, workers)
	maxLen := b.cfg.GPUMaxPathLength

	find := func(a, bKey topo.NodeKey) ([]topo.NodeKey, bool) {
		startID, ok1 := graph.IndexOf(a)
		goalID, ok2 := graph.IndexOf(bKey)
		if !ok1 || !ok2 {
			return nil, false
		}
		path, found := reconstructFromMatrixF32(graph, dist, startID, goalID, maxLen)
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

// computeDistanceMatrixF32 is computeDistanceMatrix's float32
// counterpart: one job per source vertex, drained by a fixed pool of
// workers goroutines sharing the read-only graph, each job writing
// only its own row.
func computeDistanceMatrixF32(ctx context.Context, g *topo.Graph, workers int) [][]float32 {
	v := g.NumVertices()
	dist := make([][]float32, v)

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
				dist[src] = dijkstraFullRowF32(g, src)
			}
		}()
	}
	wg.Wait()
	return dist
}

func dijkstraFullRowF32(g *topo.Graph, src int) []float32 {
	v := g.NumVertices()
	dist := make([]float32, v)
	for i := range dist {
		dist[i] = gpuInfinity
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
			nd := float32(cur.dist) + float32(e.weight)
			if nd < dist[e.to] {
				dist[e.to] = nd
				heap.Push(pq, nodeItem{id: e.to, dist: float64(nd)})
			}
		}
	}
	return dist
}

// reconstructFromMatrixF32 mirrors reconstructFromMatrix's predecessor
// backtracking over a float32 matrix with the gpuInfinity sentinel,
// additionally enforcing maxLen: a path whose reconstruction would
// exceed it is truncated and reported as "no path" rather than
// emitted with a wrong chain.
func reconstructFromMatrixF32(g *topo.Graph, dist [][]float32, start, goal, maxLen int) ([]int, bool) {
	if dist[start][goal] >= gpuInfinity {
		return nil, false
	}
	if start == goal {
		return []int{start}, true
	}

	const tol = float32(1e-3) // float32 precision is coarser than the CPU backend's 1e-6

	path := []int{goal}
	cur := goal
	visitedGuard := make(map[int]bool)
	for cur != start {
		if len(path) > maxLen {
			return nil, false
		}
		if visitedGuard[cur] {
			return nil, false
		}
		visitedGuard[cur] = true

		bestPred := -1
		var bestDist float32 = gpuInfinity
		for _, e := range g.Neighbors(cur) {
			ew := float32(e.weight)
			candidate := dist[start][e.to] + ew
			if candidate < dist[start][cur]-tol || candidate > dist[start][cur]+tol {
				continue
			}
			d := dist[start][e.to]
			if d < bestDist-tol || (abs32(d-bestDist) <= tol && (bestPred == -1 || e.to < bestPred)) {
				bestDist = d
				bestPred = e.to
			}
		}
		if bestPred == -1 {
			return nil, false
		}
		path = append(path, bestPred)
		cur = bestPred
	}
	if len(path) > maxLen {
		return nil, false
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
