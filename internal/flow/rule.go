// Package flow defines the compiled flow rule and the deduplicating set
// the flow compiler accumulates into.
package flow

import "github.com/routectl/routectl/internal/topo"

// Rule is the compiled output record. Equality and hashing use all six
// match-and-action fields — Key returns exactly those six fields as a
// comparable struct so a plain Go map can serve as the dedup set
// without a hand-rolled hash function.
type Rule struct {
	Switch    topo.SwitchID
	InPort    topo.PortID
	OutPort   topo.PortID
	Priority  int
	EthSrc    topo.HostMac
	EthDst    topo.HostMac
	Permanent bool
}

// Key is the comparable six-field identity used for deduplication.
type Key struct {
	Switch   topo.SwitchID
	InPort   topo.PortID
	OutPort  topo.PortID
	Priority int
	EthDst   topo.HostMac
	EthSrc   topo.HostMac
}

// Key returns r's dedup key.
func (r Rule) Key() Key {
	return Key{
		Switch:   r.Switch,
		InPort:   r.InPort,
		OutPort:  r.OutPort,
		Priority: r.Priority,
		EthDst:   r.EthDst,
		EthSrc:   r.EthSrc,
	}
}
