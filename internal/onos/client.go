package onos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/routectl/routectl/internal/topo"
)

// Client is a thin request/response wrapper over the ONOS v1 REST API:
// a configured *http.Client, basic auth, JSON encode/decode helpers,
// and slog logging of every request's outcome and duration.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	logger   *slog.Logger
}

// NewClient creates a new ONOS API client. baseURL should be the root
// of the ONOS v1 API, e.g. "http://localhost:8181/onos/v1".
func NewClient(baseURL, username, password string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// do performs a request, applying basic auth and logging outcome and
// duration, and decodes a JSON response body into out if non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("onos request failed", "method", method, "path", path, "error", err, "duration", duration.String())
		}
		return fmt.Errorf("onos %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.Error("onos request rejected", "method", method, "path", path, "status", resp.StatusCode, "body", string(respBody), "duration", duration.String())
		}
		return fmt.Errorf("onos %s %s: HTTP %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if c.logger != nil {
		c.logger.Debug("onos request succeeded", "method", method, "path", path, "duration", duration.String())
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// Hosts fetches and translates the controller's /hosts listing. Hosts
// with no reported location are skipped (they cannot be placed in the
// graph).
func (c *Client) Hosts(ctx context.Context) ([]topo.Host, error) {
	var resp hostsResponse
	if err := c.do(ctx, http.MethodGet, "/hosts", nil, &resp); err != nil {
		return nil, err
	}
	hosts := make([]topo.Host, 0, len(resp.Hosts))
	for _, wh := range resp.Hosts {
		if h, ok := wireHostToHost(wh); ok {
			hosts = append(hosts, h)
		}
	}
	return hosts, nil
}

// Switches fetches the controller's /devices listing and filters to
// type == "SWITCH".
func (c *Client) Switches(ctx context.Context) ([]topo.Switch, error) {
	var resp devicesResponse
	if err := c.do(ctx, http.MethodGet, "/devices", nil, &resp); err != nil {
		return nil, err
	}
	switches := make([]topo.Switch, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		if d.Type != "SWITCH" {
			continue
		}
		id := topo.SwitchID(d.ID)
		switches = append(switches, topo.Switch{ID: id, Dpid: topo.CleanDpid(id)})
	}
	return switches, nil
}

// Links fetches and translates the controller's /links listing.
func (c *Client) Links(ctx context.Context) ([]topo.Link, error) {
	var resp linksResponse
	if err := c.do(ctx, http.MethodGet, "/links", nil, &resp); err != nil {
		return nil, err
	}
	links := make([]topo.Link, 0, len(resp.Links))
	for _, wl := range resp.Links {
		links = append(links, wireLinkToLink(wl))
	}
	return links, nil
}

// Flows fetches the controller's currently installed flow table.
func (c *Client) Flows(ctx context.Context) ([]InstalledFlow, error) {
	var resp flowsResponse
	if err := c.do(ctx, http.MethodGet, "/flows", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Flows, nil
}

// FlowInstall is the (switch, inPort, outPort, ethSrc, ethDst,
// priority) tuple the installer hands to PushFlows, independent of
// internal/flow.Rule so this package has no dependency on it.
type FlowInstall struct {
	Switch   string
	InPort   string
	OutPort  string
	EthSrc   string
	EthDst   string
	Priority int
}

// PushFlows submits a batch install request (POST /flows).
func (c *Client) PushFlows(ctx context.Context, rules []FlowInstall) error {
	payloads := make([]flowPayload, 0, len(rules))
	for _, r := range rules {
		payloads = append(payloads, flowPayload{
			Priority:    r.Priority,
			IsPermanent: true,
			DeviceID:    r.Switch,
			Treatment: flowTreatment{
				Instructions: []flowInstruction{{Type: "OUTPUT", Port: r.OutPort}},
			},
			Selector: flowSelector{
				Criteria: []flowCriterion{
					{Type: "IN_PORT", Port: r.InPort},
					{Type: "ETH_SRC", MAC: r.EthSrc},
					{Type: "ETH_DST", MAC: r.EthDst},
				},
			},
		})
	}
	return c.do(ctx, http.MethodPost, "/flows", flowsRequestBody{Flows: payloads}, nil)
}

// FlowRef identifies an installed flow for deletion.
type FlowRef struct {
	DeviceID string
	FlowID   string
}

// DeleteFlows submits a batch delete request (DELETE /flows).
func (c *Client) DeleteFlows(ctx context.Context, refs []FlowRef) error {
	body := make([]deleteFlowRef, 0, len(refs))
	for _, r := range refs {
		body = append(body, deleteFlowRef{DeviceID: r.DeviceID, FlowID: r.FlowID})
	}
	return c.do(ctx, http.MethodDelete, "/flows", deleteFlowsRequestBody{Flows: body}, nil)
}
