// Package metrics defines all Prometheus metrics for routectl. All
// metrics use the "routectl_" prefix.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "routectl"

// --- Event bus metrics ---

var (
	// EventsPublished counts events published to the bus, by type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total events published to the event bus, by event type.",
	}, []string{"event_type"})

	// EventBufferDrops counts events dropped due to a full bus buffer.
	EventBufferDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_buffer_drops_total",
		Help:      "Total events dropped due to full event bus buffer.",
	})
)

// --- Topology metrics ---

var (
	// HostsDiscovered is a gauge of hosts seen on the most recent update.
	HostsDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hosts_discovered",
		Help:      "Number of hosts reported by the controller on the last topology update.",
	})

	// SwitchesDiscovered is a gauge of switches seen on the most recent update.
	SwitchesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "switches_discovered",
		Help:      "Number of switches reported by the controller on the last topology update.",
	})

	// LinksDiscovered is a gauge of links seen on the most recent update.
	LinksDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "links_discovered",
		Help:      "Number of directed link records reported by the controller on the last topology update.",
	})

	// TopologyUpdateErrors counts failed topology updates by error kind.
	TopologyUpdateErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topology_update_errors_total",
		Help:      "Total failed topology updates, by error kind.",
	}, []string{"kind"})
)

// --- Routing engine metrics ---

var (
	// RoutingInvocations counts routing-engine runs by backend.
	RoutingInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routing_invocations_total",
		Help:      "Total routing engine invocations, by backend.",
	}, []string{"backend"})

	// RoutingDuration tracks all-pairs computation latency by backend.
	RoutingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "routing_duration_seconds",
		Help:      "All-pairs routing computation duration in seconds, by backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend"})

	// PathsNotFound counts disconnected host pairs skipped, by backend.
	PathsNotFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "paths_not_found_total",
		Help:      "Total host pairs skipped as disconnected, by backend.",
	}, []string{"backend"})
)

// --- Flow compiler metrics ---

var (
	// RulesCompiled counts rules emitted by the flow compiler, before dedup.
	RulesCompiled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rules_compiled_total",
		Help:      "Total flow rules emitted by the flow compiler before deduplication.",
	})

	// RulesDeduplicated counts rules collapsed by the dedup set.
	RulesDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rules_deduplicated_total",
		Help:      "Total flow rules collapsed because an identical rule was already in the set.",
	})

	// RulesSkippedPortUnknown counts rules dropped for a port-map miss.
	RulesSkippedPortUnknown = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rules_skipped_port_unknown_total",
		Help:      "Total rule emissions skipped due to a missing port-map lookup.",
	})
)

// --- Installer metrics ---

var (
	// InstallBatchesSubmitted counts install batches submitted to the controller.
	InstallBatchesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "install_batches_submitted_total",
		Help:      "Total install batches submitted to the controller.",
	})

	// InstallBatchesFailed counts install batches the controller rejected outright.
	InstallBatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "install_batches_failed_total",
		Help:      "Total install batches rejected by the controller.",
	})

	// RulesInstalled counts individual rules by install outcome.
	RulesInstalled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rules_installed_total",
		Help:      "Total rules by install outcome (created, failed, unchanged).",
	}, []string{"outcome"})
)

// --- Orchestrator run metrics ---

var (
	// RunStageDuration times the orchestrator stages update, compute and
	// install; compilation runs inside compute and has no label of its own.
	RunStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_stage_duration_seconds",
		Help:      "Orchestrator run duration in seconds, by stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	// RunsTotal counts completed orchestrator runs by final state.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Total orchestrator runs, by terminal state.",
	}, []string{"state"})
)
