// Package dht implements the per-peer DHT protocol engine: the message
// set, the query state machines, the record and content stores, and the
// peer event handler that ties them to the event kernel.
package dht

import (
	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/sim"
)

// QueryID is unique within a peer and monotonically increasing.
type QueryID uint64

// FindNodeRequest asks a peer for its locally closest peers to a key.
type FindNodeRequest struct {
	QueryID QueryID
	Key     kad.Key
}

// FindNodeResponse carries the responder's locally closest peers.
type FindNodeResponse struct {
	QueryID      QueryID
	ClosestPeers []sim.ID
}

// FindNodeQueryTimeout abandons a FindNode query that is still registered.
type FindNodeQueryTimeout struct {
	QueryID QueryID
}

// GetValueRequest asks a peer for the record stored under a key.
type GetValueRequest struct {
	QueryID QueryID
	Key     kad.Key
}

// GetValueResponse carries the record, or nil when the responder does not
// hold it.
type GetValueResponse struct {
	QueryID QueryID
	Record  *Record
}

// GetValueQueryTimeout abandons a GetValue query that is still registered.
type GetValueQueryTimeout struct {
	QueryID QueryID
}

// PutValueRequest stores a record at the receiver. Fire-and-forget.
type PutValueRequest struct {
	Key    kad.Key
	Record *Record
}

// PutValueQueryTimeout abandons a PutValue query that is still registered.
type PutValueQueryTimeout struct {
	QueryID QueryID
}

// RetrieveDataRequest asks a provider for the content stored under a key.
type RetrieveDataRequest struct {
	QueryID QueryID
	Key     kad.Key
}

// RetrieveDataResponse carries the content. Peers that do not hold the
// content send no response at all, so Data is always non-nil on the wire.
type RetrieveDataResponse struct {
	QueryID QueryID
	Data    []byte
}

// RetrieveDataQueryTimeout abandons a retrieval that is still registered.
type RetrieveDataQueryTimeout struct {
	QueryID QueryID
}

// PingRequest checks that a peer is alive. Statistics only.
type PingRequest struct{}

// PingResponse answers a ping.
type PingResponse struct{}

// PingTimeout expires an unanswered ping.
type PingTimeout struct{}

// BootstrapTimer drives the periodic k-bucket refresh.
type BootstrapTimer struct{}

// RepublishTimer drives the periodic republication of one record.
type RepublishTimer struct {
	Key kad.Key
}
