// Package routeerr defines the error kinds that propagate out of a
// routectl run, as opposed to the conditions that are recovered locally
// and only counted (see internal/events).
package routeerr

import "errors"

// Sentinel kinds. Wrap these with fmt.Errorf("...: %w", ErrX) to attach
// context (node ids, the pair in question) without losing errors.Is.
var (
	// ErrTopologyIncomplete means hosts exist but links is empty, or a
	// host's location references a switch absent from the switch set.
	// Fatal for the run.
	ErrTopologyIncomplete = errors.New("topology incomplete")

	// ErrControllerUnreachable means a network error talking to the
	// controller. Surfaced to the caller.
	ErrControllerUnreachable = errors.New("controller unreachable")

	// ErrInstallRejected means the controller refused a batch or some
	// rules within it. Not fatal; partial success is recorded alongside
	// this error by the installer.
	ErrInstallRejected = errors.New("controller rejected install batch")

	// ErrConfigInvalid means a configuration value failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")
)

// SidecarMissing and DistanceUnknown and PathNotFound and PortUnknown
// are intentionally absent from this package: these are recovered
// locally and counted as events (internal/events), never as a
// returned error.
