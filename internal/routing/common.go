package routing

import (
	"context"
	"sync"
	"time"

	"github.com/routectl/routectl/internal/events"
	"github.com/routectl/routectl/internal/flow"
	"github.com/routectl/routectl/internal/flowcompiler"
	"github.com/routectl/routectl/internal/metrics"
	"github.com/routectl/routectl/internal/topo"
)

// hostPair is one unordered pair of distinct-IP hosts to route between.
type hostPair struct {
	a, b topo.Host
}

// hostPairs returns every unordered pair of hosts with distinct IPs.
// Pairs where both hosts report the same IP are skipped — aliased
// hosts never get a route computed between them.
func hostPairs(hosts []topo.Host) []hostPair {
	ips := make([]string, len(hosts))
	for i, h := range hosts {
		if len(h.IPs) > 0 {
			ips[i] = h.IPs[0]
		}
	}

	var pairs []hostPair
	for i := 0; i < len(hosts); i++ {
		for j := i + 1; j < len(hosts); j++ {
			if ips[i] != "" && ips[i] == ips[j] {
				continue
			}
			pairs = append(pairs, hostPair{a: hosts[i], b: hosts[j]})
		}
	}
	return pairs
}

// pathFunc finds a shortest path between two node keys, returning the
// full node sequence (host, switches..., host) and whether one exists.
// Implementations are backend-specific; everything else about
// all-pairs computation is shared in runAllPairsCtx.
type pathFunc func(a, b topo.NodeKey) ([]topo.NodeKey, bool)

// workerCount returns configured when it is positive, otherwise
// min(16, max(1, v/4)) as the worker cap; reused by
// every backend that fans out over host pairs, and by the GPU
// backend's goroutine pool.
func workerCount(configured, v int) int {
	if configured > 0 {
		return configured
	}
	n := v / 4
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	return n
}

// runAllPairsCtx is the shared fan-out/gather driver used by every
// backend: it partitions host pairs across workers, finds a path for
// each with find, compiles it via compiler, and merges each worker's
// locally-built rule slice into the shared set once per worker — a
// per-batch merge, never a per-rule lock. ctx cancellation stops
// workers from picking up further pairs; any rules already compiled
// are still merged, so a cancelled run never returns a torn
// half-written set.
func runAllPairsCtx(ctx context.Context, model *topo.Model, compiler *flowcompiler.Compiler, find pathFunc, workers int, backendName string) *flow.Set {
	start := time.Now()
	defer func() {
		metrics.RoutingDuration.WithLabelValues(backendName).Observe(time.Since(start).Seconds())
	}()

	bus := compiler.Bus()
	pairs := hostPairs(model.Hosts())
	set := flow.NewSet()
	if len(pairs) == 0 {
		return set
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}

	jobs := make(chan hostPair, len(pairs))
	for _, p := range pairs {
		jobs <- p
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local []flow.Rule
		jobLoop:
			for p := range jobs {
				select {
				case <-ctx.Done():
					break jobLoop
				default:
				}
				path, ok := find(topo.NodeKey(p.a.MAC), topo.NodeKey(p.b.MAC))
				if !ok {
					if bus != nil {
						bus.Publish(events.Event{
							Type: events.EventPathNotFound,
							Pair: &events.PairData{A: string(p.a.MAC), B: string(p.b.MAC)},
						})
					}
					metrics.PathsNotFound.WithLabelValues(backendName).Inc()
					continue
				}
				local = append(local, compiler.CompileBidirectional(path, p.a.MAC, p.b.MAC)...)
			}
			_, dup := set.Merge(local)
			metrics.RulesDeduplicated.Add(float64(dup))
		}()
	}
	wg.Wait()
	return set
}
