// Package installer does batched, chunked submission of the compiled
// rule set to the controller, and the matching teardown path. A
// rejected batch does not abort the run — remaining batches still get
// submitted — but every rejection is recorded as an InstallRejected
// event and counted.
package installer

import (
	"context"
	"fmt"

	"github.com/routectl/routectl/internal/events"
	"github.com/routectl/routectl/internal/flow"
	"github.com/routectl/routectl/internal/metrics"
	"github.com/routectl/routectl/internal/onos"
)

// Client is the subset of onos.Client the installer needs.
type Client interface {
	PushFlows(ctx context.Context, rules []onos.FlowInstall) error
	Flows(ctx context.Context) ([]onos.InstalledFlow, error)
	DeleteFlows(ctx context.Context, refs []onos.FlowRef) error
}

// Config carries the installer's tunables: batch size and the app id
// this core's own rules are installed and deleted under.
type Config struct {
	BatchSize int
	AppID     string
}

// Result summarizes one install or delete run.
type Result struct {
	Created       int
	Failed        int
	Unchanged     int
	BatchesSent   int
	BatchesFailed int
}

// Installer submits a flow.Set to the controller in bounded batches.
type Installer struct {
	client Client
	cfg    Config
	bus    *events.Bus
}

// New returns an Installer bound to client.
func New(client Client, cfg Config, bus *events.Bus) *Installer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5000
	}
	return &Installer{client: client, cfg: cfg, bus: bus}
}

// Install submits every rule in set, batched at cfg.BatchSize. A batch
// that the controller rejects is recorded as failed and the run
// continues with the next batch.
func (in *Installer) Install(ctx context.Context, set *flow.Set) (Result, error) {
	rules := set.Slice()
	var result Result

	for start := 0; start < len(rules); start += in.cfg.BatchSize {
		end := start + in.cfg.BatchSize
		if end > len(rules) {
			end = len(rules)
		}
		batch := rules[start:end]
		batchIndex := start / in.cfg.BatchSize

		payload := make([]onos.FlowInstall, len(batch))
		for i, r := range batch {
			payload[i] = onos.FlowInstall{
				Switch:   string(r.Switch),
				InPort:   string(r.InPort),
				OutPort:  string(r.OutPort),
				EthSrc:   string(r.EthSrc),
				EthDst:   string(r.EthDst),
				Priority: r.Priority,
			}
		}

		result.BatchesSent++
		metrics.InstallBatchesSubmitted.Inc()
		if err := in.client.PushFlows(ctx, payload); err != nil {
			result.Failed += len(batch)
			result.BatchesFailed++
			metrics.InstallBatchesFailed.Inc()
			metrics.RulesInstalled.WithLabelValues("failed").Add(float64(len(batch)))
			if in.bus != nil {
				in.bus.Publish(events.Event{
					Type: events.EventInstallRejected,
					Install: &events.InstallData{
						BatchIndex: batchIndex,
						Submitted:  len(batch),
						Failed:     len(batch),
						Reason:     err.Error(),
					},
				})
			}
			continue
		}
		result.Created += len(batch)
		metrics.RulesInstalled.WithLabelValues("created").Add(float64(len(batch)))
	}

	return result, nil
}

// Delete fetches the controller's current flow table, keeps only the
// flows owned by this core's app id, and submits them to the batch
// delete endpoint in the same bounded chunks Install uses.
func (in *Installer) Delete(ctx context.Context) (Result, error) {
	installed, err := in.client.Flows(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching installed flows: %w", err)
	}

	var owned []onos.InstalledFlow
	for _, f := range installed {
		if f.AppID == in.cfg.AppID {
			owned = append(owned, f)
		}
	}

	var result Result
	for start := 0; start < len(owned); start += in.cfg.BatchSize {
		end := start + in.cfg.BatchSize
		if end > len(owned) {
			end = len(owned)
		}
		batch := owned[start:end]

		refs := make([]onos.FlowRef, len(batch))
		for i, f := range batch {
			refs[i] = onos.FlowRef{DeviceID: f.DeviceID, FlowID: f.ID}
		}

		result.BatchesSent++
		metrics.InstallBatchesSubmitted.Inc()
		if err := in.client.DeleteFlows(ctx, refs); err != nil {
			result.Failed += len(batch)
			result.BatchesFailed++
			metrics.InstallBatchesFailed.Inc()
			if in.bus != nil {
				in.bus.Publish(events.Event{
					Type: events.EventInstallRejected,
					Install: &events.InstallData{
						BatchIndex: start / in.cfg.BatchSize,
						Submitted:  len(batch),
						Failed:     len(batch),
						Reason:     err.Error(),
					},
				})
			}
			continue
		}
		result.Created += len(batch)
	}

	return result, nil
}
