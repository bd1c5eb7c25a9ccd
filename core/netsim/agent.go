package netsim

import "github.com/nmxmxh/kadsim/sim"

// FilterFunc decides the fate of a single message: the delay to deliver it
// with, or ok=false to drop it entirely. The context is the sender's, so
// delay sampling consumes the sender's RNG stream.
type FilterFunc func(ctx *sim.Context, src, dst sim.ID) (delay float64, ok bool)

// Agent is the per-pair delay sampler shared by every peer. A message to
// self is always delivered with zero delay regardless of the filter.
type Agent struct {
	filter FilterFunc
}

// FromFunc wraps an arbitrary filter, used by tests to inject partitions
// and fixed delays.
func FromFunc(filter FilterFunc) *Agent {
	return &Agent{filter: filter}
}

// FromTopologyAndDistribution builds the production agent: reachability
// from the topology, delay from the distribution.
func FromTopologyAndDistribution(topology Topology, distr DelayDistribution) *Agent {
	return FromFunc(func(ctx *sim.Context, src, dst sim.ID) (float64, bool) {
		if !topology.CheckAccess(src, dst) {
			return 0, false
		}
		return distr.Sample(ctx.RNG()), true
	})
}

// SampleMessageDelay returns the delay for one message, or ok=false when
// the destination is unreachable and the emit must be skipped.
func (a *Agent) SampleMessageDelay(ctx *sim.Context, src, dst sim.ID) (float64, bool) {
	if src == dst {
		return 0, true
	}
	return a.filter(ctx, src, dst)
}
