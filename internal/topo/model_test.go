package topo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/routectl/routectl/internal/events"
	"github.com/routectl/routectl/internal/sidecar"
)

type fakeClient struct {
	hosts    []Host
	switches []Switch
	links    []Link
	err      error
}

func (f *fakeClient) Hosts(ctx context.Context) ([]Host, error)    { return f.hosts, f.err }
func (f *fakeClient) Switches(ctx context.Context) ([]Switch, error) { return f.switches, f.err }
func (f *fakeClient) Links(ctx context.Context) ([]Link, error)    { return f.links, f.err }

func sampleClient() *fakeClient {
	return &fakeClient{
		switches: []Switch{
			{ID: "of:0000000000000001", Dpid: "0000000000000001"},
			{ID: "of:0000000000000002", Dpid: "0000000000000002"},
		},
		hosts: []Host{
			{MAC: "00:00:00:00:00:01", IPs: []string{"10.0.0.1"}, Location: Location{Switch: "of:0000000000000001", Port: "1"}},
			{MAC: "00:00:00:00:00:02", IPs: []string{"10.0.0.2"}, Location: Location{Switch: "of:0000000000000002", Port: "1"}},
		},
		links: []Link{
			{SrcSwitch: "of:0000000000000001", SrcPort: "2", DstSwitch: "of:0000000000000002", DstPort: "2"},
			{SrcSwitch: "of:0000000000000002", SrcPort: "2", DstSwitch: "of:0000000000000001", DstPort: "2"},
		},
	}
}

func TestModelUpdateBuildsIndexes(t *testing.T) {
	m := New(sampleClient(), sidecar.Empty(), Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 1.0}, nil, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(m.Hosts()) != 2 {
		t.Fatalf("Hosts() len = %d, want 2", len(m.Hosts()))
	}
	if sw, ok := m.HostSwitch("00:00:00:00:00:01"); !ok || sw != "of:0000000000000001" {
		t.Errorf("HostSwitch() = %q, %v, want of:0000000000000001, true", sw, ok)
	}
	if port, ok := m.PortFor("of:0000000000000001", "00:00:00:00:00:01"); !ok || port != "1" {
		t.Errorf("PortFor(host) = %q, %v, want 1, true", port, ok)
	}
	if port, ok := m.PortFor("of:0000000000000001", "of:0000000000000002"); !ok || port != "2" {
		t.Errorf("PortFor(switch) = %q, %v, want 2, true", port, ok)
	}
	if ip, ok := m.IP("00:00:00:00:00:02"); !ok || ip != "10.0.0.2" {
		t.Errorf("IP() = %q, %v, want 10.0.0.2, true", ip, ok)
	}
	if len(m.SwitchSet()) != 2 {
		t.Errorf("SwitchSet() len = %d, want 2", len(m.SwitchSet()))
	}
}

func TestModelUpdateRejectsHostOnUnknownSwitch(t *testing.T) {
	client := sampleClient()
	client.hosts[0].Location.Switch = "of:0000000000000099"
	m := New(client, sidecar.Empty(), Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 1.0}, nil, nil)

	err := m.Update(context.Background())
	if err == nil {
		t.Fatal("Update() expected error for host on unknown switch, got nil")
	}
}

func TestModelUpdateRejectsHostsWithNoLinks(t *testing.T) {
	client := sampleClient()
	client.links = nil
	m := New(client, sidecar.Empty(), Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 1.0}, nil, nil)

	if err := m.Update(context.Background()); err == nil {
		t.Fatal("Update() expected error for hosts present with no links, got nil")
	}
}

func TestModelUpdatePropagatesControllerError(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	m := New(client, sidecar.Empty(), Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 1.0}, nil, nil)

	if err := m.Update(context.Background()); err == nil {
		t.Fatal("Update() expected error when controller client fails, got nil")
	}
}

func TestEdgeWeightFallsBackToDefaultAndPublishesEvent(t *testing.T) {
	bus := events.NewBus(10, nil)
	ch := bus.Subscribe(10)
	go bus.Start()
	defer bus.Stop()

	m := New(sampleClient(), sidecar.Empty(), Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 2.5}, nil, bus)
	a := Switch{ID: "of:1", Dpid: "1"}
	b := Switch{ID: "of:2", Dpid: "2"}

	if w := m.EdgeWeight(a, b); w != 2.5 {
		t.Errorf("EdgeWeight() = %v, want 2.5", w)
	}

	select {
	case evt := <-ch:
		if evt.Type != events.EventDistanceUnknown {
			t.Errorf("event type = %q, want %q", evt.Type, events.EventDistanceUnknown)
		}
	case <-time.After(time.Second):
		t.Error("expected a DistanceUnknown event to be published")
	}
}

func TestEdgeWeightUsesSidecarDistance(t *testing.T) {
	sd := &sidecar.Data{Distances: map[string]float64{"1-2": 7.0}, Bandwidth: map[string]float64{}}
	m := New(sampleClient(), sd, Config{HostSwitchWeight: 0.1, DefaultEdgeWeight: 2.5}, nil, nil)

	a := Switch{ID: "of:1", Dpid: "1"}
	b := Switch{ID: "of:2", Dpid: "2"}
	if w := m.EdgeWeight(a, b); w != 7.0 {
		t.Errorf("EdgeWeight() = %v, want 7.0", w)
	}
}

func TestFindDistanceSameNodeIsZero(t *testing.T) {
	m := New(sampleClient(), sidecar.Empty(), Config{}, nil, nil)
	d, ok := m.FindDistance("a", "a")
	if !ok || d != 0 {
		t.Errorf("FindDistance(a,a) = %v, %v, want 0, true", d, ok)
	}
}
