package onos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientHostsSkipsLocationlessHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hosts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hosts":[
			{"mac":"00:00:00:00:00:01","ipAddresses":["10.0.0.1"],"locations":[{"elementId":"of:1","port":"1"}]},
			{"mac":"00:00:00:00:00:02","ipAddresses":["10.0.0.2"],"locations":[]}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", time.Second, nil)
	hosts, err := c.Hosts(context.Background())
	if err != nil {
		t.Fatalf("Hosts() error = %v", err)
	}
	if len(hosts) != 1 {
		t.Fatalf("len(hosts) = %d, want 1 (locationless host skipped)", len(hosts))
	}
	if hosts[0].Location.Switch != "of:1" || hosts[0].Location.Port != "1" {
		t.Errorf("Location = %+v, want of:1/1", hosts[0].Location)
	}
}

func TestClientSwitchesFiltersByType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"devices":[
			{"id":"of:0000000000000001","type":"SWITCH","available":true},
			{"id":"of:0000000000000002","type":"CONTROLLER","available":true}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", time.Second, nil)
	switches, err := c.Switches(context.Background())
	if err != nil {
		t.Fatalf("Switches() error = %v", err)
	}
	if len(switches) != 1 {
		t.Fatalf("len(switches) = %d, want 1", len(switches))
	}
	if switches[0].Dpid != "0000000000000001" {
		t.Errorf("Dpid = %q, want 0000000000000001", switches[0].Dpid)
	}
}

func TestClientPushFlowsSendsExpectedPayload(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		buf := make([]byte, 4096)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "onos", "rocks", time.Second, nil)
	err := c.PushFlows(context.Background(), []FlowInstall{
		{Switch: "of:1", InPort: "1", OutPort: "2", EthSrc: "aa", EthDst: "bb", Priority: 10},
	})
	if err != nil {
		t.Fatalf("PushFlows() error = %v", err)
	}
	if gotBody == "" {
		t.Fatal("expected a request body")
	}
}

func TestClientWrapsHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", time.Second, nil)
	if _, err := c.Hosts(context.Background()); err == nil {
		t.Fatal("Hosts() expected an error on HTTP 403, got nil")
	}
}
