// Package netsim models the network between simulated peers: which pairs
// can talk at all (topology) and how long a message takes when they can
// (delay distribution). No real I/O happens here; the agent only decides
// whether and when the event kernel delivers a payload.
package netsim

import "github.com/nmxmxh/kadsim/sim"

// Topology answers whether a message from one peer can reach another.
type Topology interface {
	CheckAccess(from, to sim.ID) bool
}

// FullTopology connects every pair of peers.
type FullTopology struct{}

// CheckAccess always grants access.
func (FullTopology) CheckAccess(from, to sim.ID) bool { return true }

// RingTopology connects each peer to its two neighbors by id, closing the
// ring between First and Last.
type RingTopology struct {
	First sim.ID
	Last  sim.ID
}

// CheckAccess grants access between adjacent ids and across the seam.
func (t RingTopology) CheckAccess(from, to sim.ID) bool {
	a, b := from, to
	if a > b {
		a, b = b, a
	}
	return a+1 == b || (a == t.First && b == t.Last)
}

// StarTopology connects every peer to a single center.
type StarTopology struct {
	Center sim.ID
}

// CheckAccess grants access only to pairs touching the center.
func (t StarTopology) CheckAccess(from, to sim.ID) bool {
	return from == t.Center || to == t.Center
}
