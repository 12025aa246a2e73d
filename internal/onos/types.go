// Package onos implements a thin REST client over the controller's
// topology and flow surface: GET /hosts, /devices, /links, /flows,
// POST /flows, DELETE /flows. A *http.Client with basic auth, JSON
// encode/decode, and slog request logging with duration; every method
// takes a context.Context, since the orchestrator must be able to
// cancel an in-flight call.
package onos

import "github.com/routectl/routectl/internal/topo"

// wire types mirror the controller's JSON shapes exactly; they are
// translated into topo.Host/topo.Switch/topo.Link at the client
// boundary so the rest of the system never sees controller JSON.

type hostsResponse struct {
	Hosts []wireHost `json:"hosts"`
}

type wireHost struct {
	MAC         string         `json:"mac"`
	IPAddresses []string       `json:"ipAddresses"`
	Locations   []wireLocation `json:"locations"`
	VLAN        string         `json:"vlan,omitempty"`
}

type wireLocation struct {
	ElementID string `json:"elementId"`
	Port      string `json:"port"`
}

type devicesResponse struct {
	Devices []wireDevice `json:"devices"`
}

type wireDevice struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Available bool   `json:"available"`
}

type linksResponse struct {
	Links []wireLink `json:"links"`
}

type wireLinkEnd struct {
	Device string `json:"device"`
	Port   string `json:"port"`
}

type wireLink struct {
	Src   wireLinkEnd `json:"src"`
	Dst   wireLinkEnd `json:"dst"`
	State string      `json:"state"`
}

type flowsResponse struct {
	Flows []InstalledFlow `json:"flows"`
}

// InstalledFlow is one entry of the controller's current flow table, as
// returned by GET /flows; used by the installer's delete path to find
// rules owned by this core's appId.
type InstalledFlow struct {
	ID       string `json:"id"`
	DeviceID string `json:"deviceId"`
	AppID    string `json:"appId"`
	Priority int    `json:"priority"`
}

// flowPayload is one element of a POST /flows batch body, matching
// the controller's expected shape.
type flowPayload struct {
	Priority    int           `json:"priority"`
	IsPermanent bool          `json:"isPermanent"`
	DeviceID    string        `json:"deviceId"`
	Treatment   flowTreatment `json:"treatment"`
	Selector    flowSelector  `json:"selector"`
}

type flowTreatment struct {
	Instructions []flowInstruction `json:"instructions"`
}

type flowInstruction struct {
	Type string `json:"type"`
	Port string `json:"port"`
}

type flowSelector struct {
	Criteria []flowCriterion `json:"criteria"`
}

type flowCriterion struct {
	Type string `json:"type"`
	Port string `json:"port,omitempty"`
	MAC  string `json:"mac,omitempty"`
}

type flowsRequestBody struct {
	Flows []flowPayload `json:"flows"`
}

type deleteFlowRef struct {
	DeviceID string `json:"deviceId"`
	FlowID   string `json:"flowId"`
}

type deleteFlowsRequestBody struct {
	Flows []deleteFlowRef `json:"flows"`
}

func wireHostToHost(h wireHost) (topo.Host, bool) {
	if len(h.Locations) == 0 {
		return topo.Host{}, false
	}
	loc := h.Locations[0]
	return topo.Host{
		MAC: topo.HostMac(h.MAC),
		IPs: h.IPAddresses,
		Location: topo.Location{
			Switch: topo.SwitchID(loc.ElementID),
			Port:   topo.PortID(loc.Port),
		},
	}, true
}

func wireLinkToLink(l wireLink) topo.Link {
	return topo.Link{
		SrcSwitch: topo.SwitchID(l.Src.Device),
		SrcPort:   topo.PortID(l.Src.Port),
		DstSwitch: topo.SwitchID(l.Dst.Device),
		DstPort:   topo.PortID(l.Dst.Port),
		State:     l.State,
	}
}
