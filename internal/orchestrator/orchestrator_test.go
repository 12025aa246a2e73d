package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/routectl/routectl/internal/events"
	"github.com/routectl/routectl/internal/flow"
	"github.com/routectl/routectl/internal/flowcompiler"
	"github.com/routectl/routectl/internal/installer"
	"github.com/routectl/routectl/internal/onos"
	"github.com/routectl/routectl/internal/sidecar"
	"github.com/routectl/routectl/internal/topo"
)

type fakeControllerClient struct {
	hosts    []topo.Host
	switches []topo.Switch
	links    []topo.Link
	err      error
}

func (f *fakeControllerClient) Hosts(ctx context.Context) ([]topo.Host, error)    { return f.hosts, f.err }
func (f *fakeControllerClient) Switches(ctx context.Context) ([]topo.Switch, error) { return f.switches, f.err }
func (f *fakeControllerClient) Links(ctx context.Context) ([]topo.Link, error)    { return f.links, f.err }

type fakeOnosClient struct {
	pushed int
	flows  []onos.InstalledFlow
}

func (f *fakeOnosClient) PushFlows(ctx context.Context, rules []onos.FlowInstall) error {
	f.pushed += len(rules)
	return nil
}
func (f *fakeOnosClient) Flows(ctx context.Context) ([]onos.InstalledFlow, error) { return f.flows, nil }
func (f *fakeOnosClient) DeleteFlows(ctx context.Context, refs []onos.FlowRef) error { return nil }

type fakeBackend struct {
	rules []flow.Rule
	err   error
}

func (b *fakeBackend) Name() string { return "fake" }
func (b *fakeBackend) ComputeAllPairsRules(ctx context.Context, model *topo.Model, compiler *flowcompiler.Compiler) (*flow.Set, error) {
	if b.err != nil {
		return nil, b.err
	}
	set := flow.NewSet()
	set.Merge(b.rules)
	return set, nil
}

func twoHostModel(t *testing.T) *topo.Model {
	t.Helper()
	client := &fakeControllerClient{
		switches: []topo.Switch{{ID: "s1", Dpid: "s1"}, {ID: "s2", Dpid: "s2"}},
		hosts: []topo.Host{
			{MAC: "h1", IPs: []string{"10.0.0.1"}, Location: topo.Location{Switch: "s1", Port: "p"}},
			{MAC: "h2", IPs: []string{"10.0.0.2"}, Location: topo.Location{Switch: "s2", Port: "p"}},
		},
		links: []topo.Link{
			{SrcSwitch: "s1", SrcPort: "a", DstSwitch: "s2", DstPort: "b"},
			{SrcSwitch: "s2", SrcPort: "b", DstSwitch: "s1", DstPort: "a"},
		},
	}
	return topo.New(client, sidecar.Empty(), topo.Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 1.0}, nil, nil)
}

func TestCreateRoutesHappyPath(t *testing.T) {
	model := twoHostModel(t)
	onosClient := &fakeOnosClient{}
	bus := events.NewBus(100, nil)
	go bus.Start()
	defer bus.Stop()

	compiler := flowcompiler.New(model, 10, bus)
	backend := &fakeBackend{rules: []flow.Rule{{Switch: "s1", InPort: "a", OutPort: "b", Priority: 10, EthSrc: "h1", EthDst: "h2"}}}
	inst := installer.New(onosClient, installer.Config{BatchSize: 100, AppID: "org.routectl.core"}, bus)

	orch := New(model, backend, compiler, inst, bus, nil)
	result, err := orch.CreateRoutes(context.Background())
	if err != nil {
		t.Fatalf("CreateRoutes() error = %v", err)
	}
	if result.FinalState != StateIdle {
		t.Errorf("FinalState = %v, want StateIdle", result.FinalState)
	}
	if result.HostCount != 2 {
		t.Errorf("HostCount = %d, want 2", result.HostCount)
	}
	if result.RulesCompiled != 1 {
		t.Errorf("RulesCompiled = %d, want 1", result.RulesCompiled)
	}
	if onosClient.pushed != 1 {
		t.Errorf("onosClient.pushed = %d, want 1", onosClient.pushed)
	}
}

func TestCreateRoutesFailsOnUpdateError(t *testing.T) {
	client := &fakeControllerClient{err: errors.New("unreachable")}
	model := topo.New(client, sidecar.Empty(), topo.Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 1.0}, nil, nil)

	bus := events.NewBus(100, nil)
	go bus.Start()
	defer bus.Stop()
	compiler := flowcompiler.New(model, 10, bus)
	onosClient := &fakeOnosClient{}
	inst := installer.New(onosClient, installer.Config{BatchSize: 100, AppID: "x"}, bus)

	orch := New(model, &fakeBackend{}, compiler, inst, bus, nil)
	result, err := orch.CreateRoutes(context.Background())
	if err == nil {
		t.Fatal("CreateRoutes() expected error on controller failure, got nil")
	}
	if result.FinalState != StateFailed {
		t.Errorf("FinalState = %v, want StateFailed", result.FinalState)
	}
}

func TestCreateRoutesWithNoHostsReturnsIdleEmpty(t *testing.T) {
	client := &fakeControllerClient{}
	model := topo.New(client, sidecar.Empty(), topo.Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 1.0}, nil, nil)

	bus := events.NewBus(100, nil)
	go bus.Start()
	defer bus.Stop()
	compiler := flowcompiler.New(model, 10, bus)
	onosClient := &fakeOnosClient{}
	inst := installer.New(onosClient, installer.Config{BatchSize: 100, AppID: "x"}, bus)

	orch := New(model, &fakeBackend{}, compiler, inst, bus, nil)
	result, err := orch.CreateRoutes(context.Background())
	if err != nil {
		t.Fatalf("CreateRoutes() error = %v", err)
	}
	if result.FinalState != StateIdle || result.HostCount != 0 {
		t.Errorf("result = %+v, want Idle with 0 hosts", result)
	}
}

func TestDeleteRoutesHappyPath(t *testing.T) {
	model := twoHostModel(t)
	onosClient := &fakeOnosClient{flows: []onos.InstalledFlow{{ID: "1", DeviceID: "of:1", AppID: "org.routectl.core"}}}
	bus := events.NewBus(100, nil)
	go bus.Start()
	defer bus.Stop()
	compiler := flowcompiler.New(model, 10, bus)
	inst := installer.New(onosClient, installer.Config{BatchSize: 100, AppID: "org.routectl.core"}, bus)

	orch := New(model, &fakeBackend{}, compiler, inst, bus, nil)
	result, err := orch.DeleteRoutes(context.Background())
	if err != nil {
		t.Fatalf("DeleteRoutes() error = %v", err)
	}
	if result.FinalState != StateIdle {
		t.Errorf("FinalState = %v, want StateIdle", result.FinalState)
	}
	if result.Install.Created != 1 {
		t.Errorf("Install.Created = %d, want 1", result.Install.Created)
	}
}
