package routing

import (
	"context"
	"sort"
	"testing"

	"github.com/routectl/routectl/internal/flowcompiler"
	"github.com/routectl/routectl/internal/sidecar"
	"github.com/routectl/routectl/internal/topo"
)

type fakeClient struct {
	hosts    []topo.Host
	switches []topo.Switch
	links    []topo.Link
}

func (f *fakeClient) Hosts(ctx context.Context) ([]topo.Host, error)    { return f.hosts, nil }
func (f *fakeClient) Switches(ctx context.Context) ([]topo.Switch, error) { return f.switches, nil }
func (f *fakeClient) Links(ctx context.Context) ([]topo.Link, error)    { return f.links, nil }

// ringModel builds a 4-switch ring with one host on each switch, so
// every backend has more than one candidate path between some pairs.
func ringModel(t *testing.T) *topo.Model {
	t.Helper()
	client := &fakeClient{
		switches: []topo.Switch{
			{ID: "s1", Dpid: "s1"}, {ID: "s2", Dpid: "s2"},
			{ID: "s3", Dpid: "s3"}, {ID: "s4", Dpid: "s4"},
		},
		hosts: []topo.Host{
			{MAC: "h1", IPs: []string{"10.0.0.1"}, Location: topo.Location{Switch: "s1", Port: "p"}},
			{MAC: "h2", IPs: []string{"10.0.0.2"}, Location: topo.Location{Switch: "s2", Port: "p"}},
			{MAC: "h3", IPs: []string{"10.0.0.3"}, Location: topo.Location{Switch: "s3", Port: "p"}},
			{MAC: "h4", IPs: []string{"10.0.0.4"}, Location: topo.Location{Switch: "s4", Port: "p"}},
		},
		links: []topo.Link{
			{SrcSwitch: "s1", SrcPort: "a", DstSwitch: "s2", DstPort: "b"},
			{SrcSwitch: "s2", SrcPort: "b", DstSwitch: "s1", DstPort: "a"},
			{SrcSwitch: "s2", SrcPort: "c", DstSwitch: "s3", DstPort: "d"},
			{SrcSwitch: "s3", SrcPort: "d", DstSwitch: "s2", DstPort: "c"},
			{SrcSwitch: "s3", SrcPort: "e", DstSwitch: "s4", DstPort: "f"},
			{SrcSwitch: "s4", SrcPort: "f", DstSwitch: "s3", DstPort: "e"},
			{SrcSwitch: "s4", SrcPort: "g", DstSwitch: "s1", DstPort: "h"},
			{SrcSwitch: "s1", SrcPort: "h", DstSwitch: "s4", DstPort: "g"},
		},
	}
	m := topo.New(client, sidecar.Empty(), topo.Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 1.0}, nil, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	return m
}

func TestBackendsProduceEquivalentRuleSets(t *testing.T) {
	model := ringModel(t)

	backends := []Backend{
		newAStar(Config{}),
		newDijkstraCPU(Config{}),
		newDijkstraGPU(Config{GPUMaxPathLength: 64}),
	}

	var sizes []int
	for _, b := range backends {
		compiler := flowcompiler.New(model, 10, nil)
		set, err := b.ComputeAllPairsRules(context.Background(), model, compiler)
		if err != nil {
			t.Fatalf("%s: ComputeAllPairsRules() error = %v", b.Name(), err)
		}
		if set.Len() == 0 {
			t.Errorf("%s: expected a non-empty rule set for a connected ring", b.Name())
		}
		sizes = append(sizes, set.Len())
	}

	sort.Ints(sizes)
	if sizes[0] != sizes[len(sizes)-1] {
		t.Errorf("backends produced differently-sized rule sets: %v", sizes)
	}
}

func TestWorkerCountBounds(t *testing.T) {
	if n := workerCount(0, 1); n != 1 {
		t.Errorf("workerCount(0,1) = %d, want 1", n)
	}
	if n := workerCount(0, 1000); n != 16 {
		t.Errorf("workerCount(0,1000) = %d, want 16 (capped)", n)
	}
	if n := workerCount(4, 1000); n != 4 {
		t.Errorf("workerCount(4,1000) = %d, want 4 (explicit override)", n)
	}
}

func TestHostPairsSkipsAliasedIPs(t *testing.T) {
	hosts := []topo.Host{
		{MAC: "h1", IPs: []string{"10.0.0.1"}},
		{MAC: "h2", IPs: []string{"10.0.0.1"}}, // shares h1's IP, so the h1-h2 pair is skipped
		{MAC: "h3", IPs: []string{"10.0.0.3"}},
	}
	pairs := hostPairs(hosts)
	if len(pairs) != 2 {
		t.Fatalf("len(pairs) = %d, want 2 (h1-h3 and h2-h3)", len(pairs))
	}
}
